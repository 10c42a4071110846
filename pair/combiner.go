package pair

import (
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Filler receives the weighted pair fills of one worker.
type Filler interface {
	Fill(s Strategy, v track.Variant, cbin int, pt, mass, w float64)
}

// Combiner applies the pair cuts and fills every qualifying strategy.
// It holds no per-event state and is safe for concurrent use.
type Combiner struct {
	nbins    int
	legacyPt bool
	emcNoPID bool
}

func NewCombiner(cfg *config.Config) *Combiner {
	return &Combiner{
		nbins:    cfg.NCentrality(),
		legacyPt: cfg.PairPtLegacy,
		emcNoPID: cfg.FillEMCalNoPID,
	}
}

// Accept applies the ghost and one-arm cuts.
func (c *Combiner) Accept(pos, neg *track.Candidate) bool {
	if IsGhost(pos.Zed-neg.Zed, pos.Phi-neg.Phi, pos.Alpha-neg.Alpha) {
		return false
	}
	return IsOneArm(pos.Phi, neg.Phi)
}

// Fill adds the contributions of one (positive, negative) pair to f, every
// fill weighted by eventWeight. No-PID is always filled; 2-PID is only
// considered for 1-PID pairs and the single detector strategies only for
// 2-PID pairs. Fill reports whether the pair passed the pair cuts.
func (c *Combiner) Fill(f Filler, pos, neg *track.Candidate, eventWeight float64) bool {
	if !c.Accept(pos, neg) {
		return false
	}
	k := NewKinematics(pos, neg, c.legacyPt)

	var gates [NStrategies]bool
	gates[NoPID] = true
	gates[EMCNoPID] = c.emcNoPID && IsEMCNoPID(pos, neg)
	if Is1PID(pos, neg) {
		gates[OnePID] = true
		if Is2PID(pos, neg) {
			gates[TwoPID] = true
			gates[TOF2PID] = IsTOF2PID(pos, neg)
			gates[EMC2PID] = IsEMC2PID(pos, neg)
		}
	}

	for s := NoPID; s < NStrategies; s++ {
		if !gates[s] {
			continue
		}
		for _, v := range s.Variants() {
			for b := 0; b < c.nbins; b++ {
				w := Weight(s, &pos.W[v][b], &neg.W[v][b])
				f.Fill(s, v, b, k.Pt, k.Mass, eventWeight*w)
			}
		}
	}
	return true
}
