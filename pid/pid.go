// Package pid identifies charged hadrons from the squared mass measured by
// the timing detectors (TOFe, TOFw, EMCal).
package pid

import (
	"math"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

// Detector labels.
const (
	// Junk marks a detector without a usable hit for the track.
	Junk = -9999
	// NoPID marks a usable hit whose m2 does not single out the expected species.
	NoPID = 0
)

// C is the speed of light in cm/ns.
const C = 29.9792458

// M2 returns the squared mass (GeV^2) of a track of momentum p (GeV) measured
// with time of flight t (ns) over path length l (cm).
func M2(p, t, l float64) float64 {
	b := C * t / l
	return p * p * (b*b - 1)
}

// Identifier tests m2 against the resolution band of a timing detector.
type Identifier struct {
	Res    config.Resolution
	NSigma float64
}

// Sigma is the m2 resolution for a track of momentum p and true mass squared
// m2 flying l cm: angular resolution, multiple scattering and timing terms.
func (id Identifier) Sigma(p, m2, l float64) float64 {
	a := id.Res.SigmaAlpha / id.Res.K1
	ms := id.Res.SigmaMS / id.Res.K1
	t := id.Res.SigmaT * C / l
	v := a*a*4*m2*m2*p*p +
		ms*ms*4*m2*m2*(1+m2/(p*p)) +
		t*t*4*p*p*(m2+p*p)
	return math.Sqrt(v)
}

// Identify returns the id of the expected species when the measured m2 falls
// inside its band and outside the bands of the other hadrons of the same
// charge, and NoPID otherwise.
func (id Identifier) Identify(p, m2, l float64, expected species.Species) int {
	if !isHadron(expected) || p <= 0 || l <= 0 {
		return NoPID
	}
	if !id.inBand(p, m2, l, expected.Mass) {
		return NoPID
	}
	for _, other := range species.Daughters {
		if other.AbsID == expected.AbsID || other.Charge != expected.Charge || !isHadron(other) {
			continue
		}
		if id.inBand(p, m2, l, other.Mass) {
			return NoPID
		}
	}
	return expected.ID
}

func (id Identifier) inBand(p, m2, l, mass float64) bool {
	ref := mass * mass
	return math.Abs(m2-ref) < id.NSigma*id.Sigma(p, ref, l)
}

func isHadron(s species.Species) bool {
	switch s.AbsID {
	case 211, 321, 2212:
		return true
	}
	return false
}
