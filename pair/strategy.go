package pair

import (
	"fmt"
	"strconv"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pid"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Strategy is a way of identifying the daughters of a pair.
type Strategy int

const (
	NoPID Strategy = iota
	OnePID
	TwoPID
	TOF2PID
	EMC2PID
	EMCNoPID
	NStrategies
)

var strategyNames = [NStrategies]string{"nopid", "1pid", "2pid", "tof2pid", "emc2pid", "emcnopid"}

func (s Strategy) String() string {
	if s < 0 || s >= NStrategies {
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
	return strategyNames[s]
}

func ParseStrategy(name string) (Strategy, error) {
	for s := NoPID; s < NStrategies; s++ {
		if strategyNames[s] == name {
			return s, nil
		}
	}
	return NoPID, fmt.Errorf("unknown strategy %q", name)
}

// HistName is the name of the histogram of strategy s filled with variant v.
func (s Strategy) HistName(v track.Variant) string { return s.String() + v.Suffix() }

var (
	accVariants = []track.Variant{track.Nominal, track.AccUp, track.AccDown}
	allVariants = []track.Variant{track.Nominal, track.AccUp, track.AccDown, track.PIDUp, track.PIDDown}
)

// Variants lists the weight variants a strategy is filled with. Strategies
// that do not require an identification are insensitive to the m2 efficiency.
func (s Strategy) Variants() []track.Variant {
	switch s {
	case TwoPID, TOF2PID, EMC2PID:
		return allVariants
	}
	return accVariants
}

// Is1PID reports whether one daughter is identified by TOF or EMCal while the
// other one is registered by any outer detector. EMCal counts as well as TOF
// so that every 2-PID pair, EMCal-only ones included, passes this gate.
func Is1PID(pos, neg *track.Candidate) bool {
	return (pos.Identified() && neg.Labels.AnyHit()) || (neg.Identified() && pos.Labels.AnyHit())
}

// IsTOF2PID reports whether TOF identified both daughters.
func IsTOF2PID(pos, neg *track.Candidate) bool {
	return pos.TOFIdentified() && neg.TOFIdentified()
}

// IsEMC2PID reports whether EMCal identified both daughters.
func IsEMC2PID(pos, neg *track.Candidate) bool {
	return pos.EMCIdentified() && neg.EMCIdentified()
}

// Is2PID reports whether one common detector identified both daughters. A
// pair with one daughter identified by TOF only and the other by EMCal only
// is not a 2-PID pair.
func Is2PID(pos, neg *track.Candidate) bool {
	return IsTOF2PID(pos, neg) || IsEMC2PID(pos, neg)
}

// IsEMCNoPID reports whether EMCal registered both daughters.
func IsEMCNoPID(pos, neg *track.Candidate) bool {
	return pos.Labels.EMC != pid.Junk && neg.Labels.EMC != pid.Junk
}

// Weight is the probability that the pair with daughter weights a and b is
// reconstructed and identified under strategy s.
func Weight(s Strategy, a, b *track.Weights) float64 {
	e := a.E * b.E
	switch s {
	case NoPID:
		return e * a.Any() * b.Any()
	case OnePID:
		// P(id1 and reg2 or reg1 and id2); the overlap is both identified
		// since identification implies registration.
		q1, q2 := a.ID(), b.ID()
		r1, r2 := a.Any(), b.Any()
		return e * (q1*r2 + r1*q2 - q1*q2)
	case TwoPID:
		return e * a.ID() * b.ID()
	case TOF2PID:
		return e * a.TOFID * b.TOFID
	case EMC2PID:
		return e * a.EMCID * b.EMCID
	case EMCNoPID:
		return e * a.EMC * b.EMC
	}
	return 0
}
