package pid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

// flightTime is the time a particle of mass m and momentum p needs to fly l cm.
func flightTime(p, m, l float64) float64 {
	beta := p / math.Sqrt(p*p+m*m)
	return l / (beta * C)
}

func TestM2(t *testing.T) {
	for _, s := range []species.Species{species.PiPlus, species.KPlus, species.Proton} {
		tof := flightTime(1.2, s.Mass, 500)
		assert.InDelta(t, s.Mass*s.Mass, M2(1.2, tof, 500), 1e-9, s.Long)
	}
}

func TestIdentify(t *testing.T) {
	id := Identifier{Res: config.Default().M2.TOFe, NSigma: 2}
	const l = 500.

	t.Run("kaon at low momentum", func(t *testing.T) {
		m2 := M2(0.8, flightTime(0.8, species.KPlus.Mass, l), l)
		assert.Equal(t, species.KPlus.ID, id.Identify(0.8, m2, l, species.KPlus))
		assert.Equal(t, species.KMinus.ID, id.Identify(0.8, m2, l, species.KMinus))
	})

	t.Run("pion is not a kaon", func(t *testing.T) {
		m2 := M2(0.8, flightTime(0.8, species.PiPlus.Mass, l), l)
		assert.Equal(t, NoPID, id.Identify(0.8, m2, l, species.KPlus))
		assert.Equal(t, species.PiPlus.ID, id.Identify(0.8, m2, l, species.PiPlus))
	})

	t.Run("bands merge at high momentum", func(t *testing.T) {
		m2 := M2(6, flightTime(6, species.KPlus.Mass, l), l)
		assert.Equal(t, NoPID, id.Identify(6, m2, l, species.KPlus))
	})

	t.Run("electrons are never identified by m2", func(t *testing.T) {
		assert.Equal(t, NoPID, id.Identify(0.5, 0, l, species.Positron))
	})

	t.Run("unphysical inputs", func(t *testing.T) {
		assert.Equal(t, NoPID, id.Identify(0, 0.24, l, species.KPlus))
		assert.Equal(t, NoPID, id.Identify(1, 0.24, 0, species.KPlus))
	})
}

func TestSigmaGrowsWithMomentum(t *testing.T) {
	id := Identifier{Res: config.Default().M2.TOFw, NSigma: 2}
	m2 := species.KPlus.Mass * species.KPlus.Mass
	prev := 0.
	for _, p := range []float64{0.5, 1, 2, 4} {
		s := id.Sigma(p, m2, 480)
		assert.Greater(t, s, prev)
		prev = s
	}
}

func TestEMCalCalib(t *testing.T) {
	params := config.Default().EMCalID
	c := EMCalCalib{Params: params}

	for _, absID := range []int{211, 321, 2212} {
		f := c.Factor(1.5, absID)
		assert.True(t, f >= 0 && f <= 1)
		par := params[absID]
		assert.InDelta(t, par.A-par.B*math.Exp(-par.C*1.5), f, 1e-12)
	}
	assert.Zero(t, c.Factor(1, 11))

	legacy := EMCalCalib{Params: params, Legacy: true}
	assert.Equal(t, c.Factor(1.1, 2212), legacy.Factor(1.1, 211))
	assert.Equal(t, c.Factor(1.1, 2212), legacy.Factor(1.1, 321))

	clamp := EMCalCalib{Params: config.EMCalIDs{321: {A: 1.5}}}
	assert.Equal(t, 1.0, clamp.Factor(2, 321))
}
