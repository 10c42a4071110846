// Package tracktest builds synthetic tracks, tables and configurations for
// tests of the classification and pairing code.
package tracktest

import (
	"fmt"
	"math"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/embed"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pid"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Azimuths inside the west and the east arm.
const (
	WestPhi = 0.4
	EastPhi = 2.6
)

// Config returns the default configuration with nbins centrality classes.
func Config(nbins int) *config.Config {
	cfg := config.Default()
	cfg.Centrality = make([]string, nbins)
	for i := range cfg.Centrality {
		cfg.Centrality[i] = fmt.Sprintf("c%d", i)
	}
	cfg.Workers = 2
	return cfg
}

// Embedding returns a table where every sector of det has eff[det] in all
// centrality bins; detectors missing from eff get 0.5.
func Embedding(key string, nbins int, eff map[embed.Detector]float64) *embed.Embedding {
	return embed.NewEmbedding(key, nbins, func(det embed.Detector, _, _ int) float64 {
		if v, ok := eff[det]; ok {
			return v
		}
		return 0.5
	})
}

// Systematics returns uncertainties where every acceptance and matching term
// is acc and every EMCal m2 efficiency term is m2.
func Systematics(acc, m2 float64) *embed.Systematics {
	sys := &embed.Systematics{}
	for det := embed.DCPC1; det < embed.NDetectors; det++ {
		sys.Acc[det] = acc
		if det != embed.DCPC1 {
			sys.Match[det] = acc
		}
	}
	for i := range sys.M2Eff {
		for j := range sys.M2Eff[i] {
			sys.M2Eff[i][j] = m2
		}
	}
	return sys
}

// Builder assembles a track of a given species.
type Builder struct {
	s species.Species
	t track.Track
}

// New starts a track of species s with momentum p perpendicular to the beam
// at azimuth phi, passing every baseline cut.
func New(s species.Species, p, phi float64) *Builder {
	return &Builder{
		s: s,
		t: track.Track{
			Charge:     s.Charge,
			Mom:        p,
			The0:       math.Pi / 2,
			Phi0:       phi,
			Phi:        phi,
			Alpha:      0.01 * float64(s.Charge),
			Quality:    63,
			ParticleID: s.ID,
		},
	}
}

func (b *Builder) Zed(z float64) *Builder      { b.t.Zed = z; return b }
func (b *Builder) Alpha(a float64) *Builder    { b.t.Alpha = a; return b }
func (b *Builder) Quality(q int) *Builder      { b.t.Quality = q; return b }
func (b *Builder) ParticleID(id int) *Builder  { b.t.ParticleID = id; return b }
func (b *Builder) Theta(the0 float64) *Builder { b.t.The0 = the0; return b }
func (b *Builder) DCPhi(phi float64) *Builder  { b.t.Phi = phi; return b }
func (b *Builder) Momentum(p float64) *Builder { b.t.Mom = p; return b }
func (b *Builder) Charge(charge int) *Builder  { b.t.Charge = charge; return b }

func (b *Builder) PC2() *Builder {
	b.t.PC2 = track.Match{Hit: true, SDPhi: 0.3, SDZ: -0.3}
	return b
}

func (b *Builder) PC3() *Builder {
	b.t.PC3 = track.Match{Hit: true, SDPhi: -0.2, SDZ: 0.4}
	return b
}

// TOF adds a hit in the TOF of the track's arm whose m2 identifies the
// species when identified is true and falls between the hadron bands otherwise.
func (b *Builder) TOF(identified bool) *Builder {
	const l = 500.
	hit := track.Timing{
		Match:   track.Match{Hit: true, SDPhi: 0.5, SDZ: 0.5},
		Channel: 10,
		PathLen: l,
		Time:    FlightTime(b.t.Mom, b.mass(identified), l),
	}
	if b.t.Arm() == track.East {
		b.t.TOFe = hit
	} else {
		b.t.TOFw = hit
	}
	return b
}

// EMC adds an EMCal cluster in sector 1 of the track's arm.
func (b *Builder) EMC(identified bool) *Builder {
	const l = 510.
	b.t.EMCal = track.Cluster{
		Match:   track.Match{Hit: true, SDPhi: -0.5, SDZ: 0.1},
		Arm:     b.t.Arm(),
		Sector:  1,
		YTower:  20,
		ZTower:  30,
		PathLen: l,
		Ecore:   0.4,
		Time:    FlightTime(b.t.Mom, b.mass(identified), l),
	}
	return b
}

func (b *Builder) Track() track.Track { return b.t }

func (b *Builder) mass(identified bool) float64 {
	if identified {
		return b.s.Mass
	}
	return math.Sqrt(b.s.Mass*b.s.Mass + 0.4)
}

// FlightTime is the time (ns) a particle of mass m and momentum p needs to fly l cm.
func FlightTime(p, m, l float64) float64 {
	beta := p / math.Sqrt(p*p+m*m)
	return l / (beta * pid.C)
}
