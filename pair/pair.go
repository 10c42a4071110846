// Package pair combines the classified daughters of one event into weighted
// pair contributions for every identification strategy.
package pair

import (
	"math"

	"go-hep.org/x/hep/fmom"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Ghost windows in (dzed, dphi, dalpha) around duplicated reconstructions.
const (
	ghostZed   = 6.0
	ghostWidth = 0.015
	ghostPC1   = 0.13
	ghostX1X2a = 0.04
	ghostX1X2b = -0.065
)

// IsGhost reports whether a pair with the given DC differences is a
// reconstruction duplicate of a single track: the PC1 double hit line or one
// of the two X1X2 correlation lines.
func IsGhost(dzed, dphi, dalpha float64) bool {
	if math.Abs(dzed) < ghostZed && math.Abs(dphi-ghostPC1*dalpha) < ghostWidth {
		return true
	}
	if math.Abs(dphi-ghostX1X2a*dalpha) < ghostWidth {
		return true
	}
	return math.Abs(dphi-ghostX1X2b*dalpha) < ghostWidth
}

// IsOneArm reports whether both DC azimuths fall into the same arm.
func IsOneArm(phi1, phi2 float64) bool {
	return (phi1 < track.ArmBoundary) == (phi2 < track.ArmBoundary)
}

// Kinematics of a daughter pair at the vertex.
type Kinematics struct {
	Mass float64
	Pt   float64
}

// NewKinematics sums the daughter four-momenta built from the expected masses.
// With legacyPt the pair pT takes the y component of the positive daughter
// twice, reproducing histograms produced before the fix.
func NewKinematics(pos, neg *track.Candidate, legacyPt bool) Kinematics {
	p1 := daughter(pos)
	p2 := daughter(neg)
	sum := fmom.NewPxPyPzE(p1.Px()+p2.Px(), p1.Py()+p2.Py(), p1.Pz()+p2.Pz(), p1.E()+p2.E())

	k := Kinematics{Mass: sum.M(), Pt: sum.Pt()}
	if legacyPt {
		k.Pt = math.Hypot(pos.Px+neg.Px, 2*pos.Py)
	}
	return k
}

func daughter(c *track.Candidate) fmom.PxPyPzE {
	e := math.Sqrt(c.Px*c.Px + c.Py*c.Py + c.Pz*c.Pz + c.Mass*c.Mass)
	return fmom.NewPxPyPzE(c.Px, c.Py, c.Pz, e)
}
