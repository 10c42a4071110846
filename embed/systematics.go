package embed

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	nAcceptance = 13
	nM2Eff      = 16
)

// Systematics holds the fractional uncertainties of one species.
//
// The file layout is positional: acceptance of dc_pc1, pc2, pc3, tofe, tofw,
// emcale, emcalw; matching of pc2, pc3, tofe, tofw, emcale, emcalw; then the
// EMCal m2 identification efficiency of the 8 sectors (east 0-3, west 0-3) for
// positive tracks followed by the same 8 values for negative tracks.
type Systematics struct {
	Acc   [NDetectors]float64
	Match [NDetectors]float64 // Match[DCPC1] is unused
	M2Eff [2][2 * NSectors]float64
}

func LoadSystematics(dir, key string) (*Systematics, error) {
	path := filepath.Join(dir, key+".txt")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, err
	}
	defer f.Close()

	var vals []float64
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	if len(vals) != nAcceptance+nM2Eff {
		return nil, fmt.Errorf("%w: %s has %d values, want %d", ErrShortRow, path, len(vals), nAcceptance+nM2Eff)
	}

	sys := &Systematics{}
	for det := DCPC1; det < NDetectors; det++ {
		sys.Acc[det] = vals[det]
	}
	for det := PC2; det < NDetectors; det++ {
		sys.Match[det] = vals[int(NDetectors)+int(det)-1]
	}
	for i := 0; i < nM2Eff; i++ {
		sys.M2Eff[i/(2*NSectors)][i%(2*NSectors)] = vals[nAcceptance+i]
	}
	return sys, nil
}

// AccVar is the acceptance uncertainty of a detector relative to the DC-PC1
// baseline: tracking, detector acceptance and matching combined in quadrature.
func (s *Systematics) AccVar(det Detector) float64 {
	if det == DCPC1 {
		return s.Acc[DCPC1]
	}
	return ErrPropagation(s.Acc[DCPC1], s.Acc[det], s.Match[det])
}

// M2EffVar is the EMCal identification efficiency uncertainty of a sector.
func (s *Systematics) M2EffVar(charge, arm, sector int) float64 {
	ic := 0
	if charge < 0 {
		ic = 1
	}
	return s.M2Eff[ic][arm*NSectors+sector]
}
