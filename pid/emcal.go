package pid

import (
	"math"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
)

// EMCalCalib converts an EMCal registration probability into an
// identification probability.
type EMCalCalib struct {
	Params config.EMCalIDs
	// Legacy applies the proton parametrization to every hadron.
	Legacy bool
}

// Factor is the fraction of registered tracks of momentum p and species absID
// that the EMCal m2 cut identifies, within [0, 1].
func (c EMCalCalib) Factor(p float64, absID int) float64 {
	if c.Legacy {
		switch absID {
		case 211, 321, 2212:
			absID = 2212
		}
	}
	par, ok := c.Params[absID]
	if !ok {
		return 0
	}
	v := par.A - par.B*math.Exp(-par.C*p)
	return math.Max(0, math.Min(1, v))
}
