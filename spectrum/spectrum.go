// Package spectrum reweights flat generated transverse momentum spectra to a
// Tsallis-like fit of the measured resonance yield.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/integrate/quad"
)

var (
	ErrBadFit         = errors.New("spectrum fit file must hold 6 values")
	ErrEmptyReference = errors.New("reference spectrum is empty")
)

// Fit holds the fit parameters p0..p4 and the resonance mass.
type Fit struct {
	P    [5]float64
	Mass float64
}

// LoadFit reads the six whitespace separated values of a fit file.
func LoadFit(path string) (Fit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fit{}, fmt.Errorf("could not read spectrum fit: %w", err)
	}
	var vals []float64
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Fit{}, fmt.Errorf("%s: %w", path, err)
			}
			vals = append(vals, v)
		}
	}
	if len(vals) != 6 {
		return Fit{}, fmt.Errorf("%w: %s has %d", ErrBadFit, path, len(vals))
	}
	var fit Fit
	copy(fit.P[:], vals)
	fit.Mass = vals[5]
	return fit, nil
}

// Eval returns the invariant yield at transverse momentum pt.
func (f Fit) Eval(pt float64) float64 {
	p := f.P
	mt := math.Sqrt(pt*pt + f.Mass*f.Mass)
	return p[0] * pt * math.Pow(1+(mt-f.Mass)/(p[1]*p[2]), -p[1]) * math.Pow(1+p[3]*pt, p[4])
}

// Integral integrates the fit over [lo, hi].
func (f Fit) Integral(lo, hi float64) float64 {
	return quad.Fixed(f.Eval, lo, hi, 128, quad.Legendre{}, 0)
}

// Reweighter maps the true pT of a generated event to its weight.
type Reweighter struct {
	fit  Fit
	norm float64
}

// NewReweighter normalizes the fit with the reference spectrum of the
// generated sample: the weights of the sample then sum to the share of the
// fit integral over [lo, hi] covered by the generated range, so samples with
// different ranges can be merged.
func NewReweighter(fit Fit, ref *hbook.H1D, lo, hi float64) (*Reweighter, error) {
	n := ref.SumW()
	if !(n > 0) {
		return nil, ErrEmptyReference
	}
	width := ref.XMax() - ref.XMin()
	total := fit.Integral(lo, hi)
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("spectrum integral over [%v, %v] is %v", lo, hi, total)
	}
	return &Reweighter{fit: fit, norm: n * total / width}, nil
}

func (r *Reweighter) Weight(pt float64) float64 { return r.fit.Eval(pt) / r.norm }
