// Package embed loads the embedding efficiency tables and the systematic
// uncertainty tables of the central arm detectors.
//
// Embedding tables are flat text files named <species>_<detector>.txt holding
// one row of centrality-binned efficiencies (four rows, one per sector, for the
// EMCal arms). Lines starting with '#' are comments.
package embed

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrMissingFile    = errors.New("missing table file")
	ErrShortRow       = errors.New("table row has the wrong number of values")
	ErrMissingSpecies = errors.New("no embedding table for species")
)

type Detector int

const (
	DCPC1 Detector = iota
	PC2
	PC3
	TOFe
	TOFw
	EMCalE
	EMCalW
	NDetectors
)

// NSectors is the number of EMCal sectors per arm.
const NSectors = 4

var detectorNames = [NDetectors]string{"dc_pc1", "pc2", "pc3", "tofe", "tofw", "emcale", "emcalw"}

func (d Detector) String() string {
	if d < 0 || d >= NDetectors {
		return "detector(" + strconv.Itoa(int(d)) + ")"
	}
	return detectorNames[d]
}

// Rows is the number of table rows the detector carries.
func (d Detector) Rows() int {
	if d == EMCalE || d == EMCalW {
		return NSectors
	}
	return 1
}

// EMCalArm returns the EMCal detector of an arm (0 east, 1 west).
func EMCalArm(arm int) Detector {
	if arm == 0 {
		return EMCalE
	}
	return EMCalW
}

// Embedding holds the efficiencies of one species. It is read-only once loaded.
type Embedding struct {
	Key   string
	NBins int
	vals  [NDetectors][][]float64
}

// LoadEmbedding reads every detector table of a species from dir.
func LoadEmbedding(dir, key string, nbins int) (*Embedding, error) {
	if key == "" {
		return nil, ErrMissingSpecies
	}
	emb := &Embedding{Key: key, NBins: nbins}
	for det := DCPC1; det < NDetectors; det++ {
		path := filepath.Join(dir, key+"_"+det.String()+".txt")
		rows, err := readRows(path, nbins)
		if err != nil {
			return nil, err
		}
		if len(rows) != det.Rows() {
			return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrShortRow, path, len(rows), det.Rows())
		}
		emb.vals[det] = rows
	}
	return emb, nil
}

// NewEmbedding builds a table from an efficiency function instead of files.
func NewEmbedding(key string, nbins int, eff func(det Detector, sector, cbin int) float64) *Embedding {
	emb := &Embedding{Key: key, NBins: nbins}
	for det := DCPC1; det < NDetectors; det++ {
		rows := make([][]float64, det.Rows())
		for s := range rows {
			rows[s] = make([]float64, nbins)
			for b := range rows[s] {
				rows[s][b] = eff(det, s, b)
			}
		}
		emb.vals[det] = rows
	}
	return emb
}

// Weight returns the efficiency of a detector for a centrality bin. The sector
// is ignored for detectors with a single row.
func (e *Embedding) Weight(det Detector, sector, cbin int) float64 {
	rows := e.vals[det]
	if len(rows) == 1 {
		sector = 0
	}
	return rows[sector][cbin]
}

func readRows(path string, nbins int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	for iline := 1; sc.Scan(); iline++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != nbins {
			return nil, fmt.Errorf("%w: %s:%d has %d values, want %d", ErrShortRow, path, iline, len(fields), nbins)
		}
		row := make([]float64, nbins)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, iline, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return rows, nil
}

// ErrPropagation combines independent relative uncertainties in quadrature.
func ErrPropagation(a, b, c float64) float64 {
	return math.Sqrt(a*a + b*b + c*c)
}
