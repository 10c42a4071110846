package track

import (
	"fmt"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pid"
)

// Variant selects the nominal weights or one of their systematic shifts.
type Variant int

const (
	Nominal Variant = iota
	AccUp
	AccDown
	PIDUp
	PIDDown
	NVariants
)

var variantSuffix = [NVariants]string{"", "_acc_up", "_acc_down", "_m2eff_up", "_m2eff_down"}

// Suffix is appended to histogram names filled with the variant.
func (v Variant) Suffix() string { return variantSuffix[v] }

func (v Variant) String() string {
	if v == Nominal {
		return "nominal"
	}
	return variantSuffix[v][1:]
}

// ParseVariant is the inverse of String; the empty string is the nominal variant.
func ParseVariant(name string) (Variant, error) {
	if name == "" {
		return Nominal, nil
	}
	for v := Nominal; v < NVariants; v++ {
		if v.String() == name {
			return v, nil
		}
	}
	return Nominal, fmt.Errorf("unknown weight variant %q", name)
}

// Weights are the probabilities of one track in one centrality class.
type Weights struct {
	// E is the DC-PC1 embedding efficiency every other weight is relative to.
	E float64

	// Registration probabilities given the track passed DC-PC1.
	TOF, EMC, PC2, PC3 float64

	// Registration and identification as the expected species.
	TOFID, EMCID float64
}

// Any is the probability that at least one outer detector registers the track.
func (w *Weights) Any() float64 {
	return 1 - (1-w.TOF)*(1-w.EMC)*(1-w.PC2)*(1-w.PC3)
}

// ID is the probability that TOF or EMCal identifies the track.
func (w *Weights) ID() float64 {
	return 1 - (1-w.TOFID)*(1-w.EMCID)
}

// Labels hold the per detector outcome: the expected species id, pid.NoPID or pid.Junk.
type Labels struct {
	TOF, EMC, PC2, PC3 int
}

func (l Labels) AllJunk() bool {
	return l.TOF == pid.Junk && l.EMC == pid.Junk && l.PC2 == pid.Junk && l.PC3 == pid.Junk
}

// AnyHit reports whether at least one detector produced a usable hit.
func (l Labels) AnyHit() bool { return !l.AllJunk() }

// Candidate is a classified track of one event.
type Candidate struct {
	Index    int
	Charge   int
	Expected int // PDG id of the expected daughter
	Mass     float64
	Labels   Labels

	// Kinematics at the vertex, momentum scale deviation applied.
	Px, Py, Pz float64
	// DC quantities used by the pair cuts.
	Phi, Alpha, Zed float64

	// W[v][c] are the weights of variant v in centrality class c.
	W [NVariants][]Weights
}

func (c *Candidate) TOFIdentified() bool { return c.Labels.TOF == c.Expected }
func (c *Candidate) EMCIdentified() bool { return c.Labels.EMC == c.Expected }

// Identified reports whether TOF or EMCal identified the expected species.
func (c *Candidate) Identified() bool { return c.TOFIdentified() || c.EMCIdentified() }

func (c *Candidate) resize(nbins int) {
	for v := range c.W {
		if cap(c.W[v]) < nbins {
			c.W[v] = make([]Weights, nbins)
		}
		c.W[v] = c.W[v][:nbins]
		clear(c.W[v])
	}
}

// Set is the growable collection of candidates of one charge in one event.
// Storage is reused across events; Reset empties it.
type Set struct {
	items []Candidate
	n     int
}

func (s *Set) Reset()              { s.n = 0 }
func (s *Set) Len() int            { return s.n }
func (s *Set) At(i int) *Candidate { return &s.items[i] }
func (s *Set) All() []Candidate    { return s.items[:s.n] }

// slot returns the next free candidate; it only becomes part of the set
// once commit is called.
func (s *Set) slot(nbins int) *Candidate {
	if s.n == len(s.items) {
		s.items = append(s.items, Candidate{})
	}
	c := &s.items[s.n]
	c.resize(nbins)
	return c
}

func (s *Set) commit() { s.n++ }
