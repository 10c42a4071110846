package phenix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/plot"
)

func labels(ticks []plot.Tick) (major []string, minor []float64) {
	for _, t := range ticks {
		if t.Label != "" {
			major = append(major, t.Label)
		} else {
			minor = append(minor, t.Value)
		}
	}
	return major, minor
}

func TestPreciseTicks(t *testing.T) {
	for _, tc := range []struct {
		min, max float64
		major    []string
		minor    []float64
	}{
		{0, 1, []string{"0", "0.2", "0.4", "0.6", "0.8", "1"}, []float64{0.1, 0.3, 0.5, 0.7, 0.9}},
		{0, 10, []string{"0", "2", "4", "6", "8", "10"}, []float64{1, 3, 5, 7, 9}},
	} {
		major, minor := labels(PreciseTicks{NSuggestedTicks: 5}.Ticks(tc.min, tc.max))
		assert.Equal(t, tc.major, major)
		assert.InDeltaSlice(t, tc.minor, minor, 1e-12)
	}
}

func TestPreciseTicksInRange(t *testing.T) {
	for _, r := range [][2]float64{{0.2, 2}, {-3.5, 7.25}, {1e-4, 3e-3}, {0, 300}} {
		ticks := PreciseTicks{}.Ticks(r[0], r[1])
		assert.NotEmpty(t, ticks)
		var nmajor int
		for _, tk := range ticks {
			assert.GreaterOrEqual(t, tk.Value, r[0]-1e-12)
			assert.LessOrEqual(t, tk.Value, r[1]+1e-12)
			if tk.Label != "" {
				nmajor++
			}
		}
		assert.GreaterOrEqual(t, nmajor, 2, "%v", r)
	}
}

func TestPreciseTicksIllegalRange(t *testing.T) {
	assert.Panics(t, func() { PreciseTicks{}.Ticks(1, 1) })
}
