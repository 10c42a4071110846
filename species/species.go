// Package species holds the static catalog of particles used by the pair
// efficiency analysis: the charged daughters that are tracked and identified,
// and the resonances they are reconstructed from.
package species

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknown = errors.New("unknown species")

type Species struct {
	ID     int // PDG code
	AbsID  int
	Mass   float64 // GeV
	Charge int
	Short  string // embedding lookup key
	Long   string
}

var (
	PiPlus   = Species{ID: 211, AbsID: 211, Mass: 0.13957039, Charge: 1, Short: "pip", Long: "pi+"}
	PiMinus  = Species{ID: -211, AbsID: 211, Mass: 0.13957039, Charge: -1, Short: "pim", Long: "pi-"}
	KPlus    = Species{ID: 321, AbsID: 321, Mass: 0.493677, Charge: 1, Short: "kp", Long: "K+"}
	KMinus   = Species{ID: -321, AbsID: 321, Mass: 0.493677, Charge: -1, Short: "km", Long: "K-"}
	Proton   = Species{ID: 2212, AbsID: 2212, Mass: 0.93827208, Charge: 1, Short: "p", Long: "p"}
	AProton  = Species{ID: -2212, AbsID: 2212, Mass: 0.93827208, Charge: -1, Short: "pbar", Long: "anti-p"}
	Positron = Species{ID: -11, AbsID: 11, Mass: 0.00051099895, Charge: 1, Short: "ep", Long: "e+"}
	Electron = Species{ID: 11, AbsID: 11, Mass: 0.00051099895, Charge: -1, Short: "em", Long: "e-"}

	Phi        = Species{ID: 333, AbsID: 333, Mass: 1.019461, Short: "phi", Long: "phi(1020)"}
	KStar0     = Species{ID: 313, AbsID: 313, Mass: 0.89555, Short: "kstar", Long: "K*(892)0"}
	AKStar0    = Species{ID: -313, AbsID: 313, Mass: 0.89555, Short: "akstar", Long: "anti-K*(892)0"}
	Rho0       = Species{ID: 113, AbsID: 113, Mass: 0.77526, Short: "rho", Long: "rho(770)0"}
	Lambda1520 = Species{ID: 3124, AbsID: 3124, Mass: 1.5195, Short: "lambda1520", Long: "Lambda(1520)"}
	Omega      = Species{ID: 223, AbsID: 223, Mass: 0.78266, Short: "omega", Long: "omega(782)"}
)

var catalog = []Species{
	PiPlus, PiMinus, KPlus, KMinus, Proton, AProton, Positron, Electron,
	Phi, KStar0, AKStar0, Rho0, Lambda1520, Omega,
}

// Daughters lists the charged species that can be identified in the central arms.
var Daughters = []Species{PiPlus, PiMinus, KPlus, KMinus, Proton, AProton, Positron, Electron}

// Lookup returns the species with the given PDG code.
func Lookup(id int) (Species, error) {
	for _, s := range catalog {
		if s.ID == id {
			return s, nil
		}
	}
	return Species{}, fmt.Errorf("%w: id=%d", ErrUnknown, id)
}

// ByKey returns the species with the given short name.
func ByKey(key string) (Species, error) {
	for _, s := range catalog {
		if s.Short == key {
			return s, nil
		}
	}
	return Species{}, fmt.Errorf("%w: key=%q", ErrUnknown, key)
}

// Pair is a two-body decay into one positive and one negative daughter.
type Pair struct {
	Resonance Species
	Pos       Species
	Neg       Species
}

var decays = []Pair{
	{Resonance: Phi, Pos: KPlus, Neg: KMinus},
	{Resonance: KStar0, Pos: KPlus, Neg: PiMinus},
	{Resonance: AKStar0, Pos: PiPlus, Neg: KMinus},
	{Resonance: Rho0, Pos: PiPlus, Neg: PiMinus},
	{Resonance: Lambda1520, Pos: Proton, Neg: KMinus},
	{Resonance: Omega, Pos: Positron, Neg: Electron},
}

// Key is the job queue name of the pair, "<pos>_<neg>".
func (p Pair) Key() string { return p.Pos.Short + "_" + p.Neg.Short }

// ParsePair resolves a "<pos>_<neg>" queue entry into its decay.
func ParsePair(key string) (Pair, error) {
	pos, neg, ok := strings.Cut(key, "_")
	if !ok {
		return Pair{}, fmt.Errorf("%w: malformed pair %q", ErrUnknown, key)
	}
	for _, d := range decays {
		if d.Pos.Short == pos && d.Neg.Short == neg {
			return d, nil
		}
	}
	return Pair{}, fmt.Errorf("%w: no decay into %q", ErrUnknown, key)
}

// Expected returns the daughter species expected for a track of the given charge.
func (p Pair) Expected(charge int) Species {
	if charge > 0 {
		return p.Pos
	}
	return p.Neg
}
