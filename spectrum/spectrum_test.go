package spectrum

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

var phiFit = Fit{P: [5]float64{12, 9.5, 0.25, 0.1, -0.5}, Mass: 1.019}

func TestLoadFit(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "phi.txt")
	require.NoError(t, os.WriteFile(good, []byte("# p0 p1 p2 p3 p4 mass\n12 9.5 0.25\n0.1 -0.5 1.019\n"), 0o644))
	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("1 2 3 4 5\n"), 0o644))
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("1 2 x 4 5 6\n"), 0o644))

	fit, err := LoadFit(good)
	require.NoError(t, err)
	assert.Equal(t, phiFit, fit)

	_, err = LoadFit(short)
	assert.ErrorIs(t, err, ErrBadFit)

	_, err = LoadFit(bad)
	assert.Error(t, err)

	_, err = LoadFit(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEval(t *testing.T) {
	assert.Zero(t, phiFit.Eval(0))

	pt := 1.5
	mt := math.Sqrt(pt*pt + 1.019*1.019)
	want := 12 * pt * math.Pow(1+(mt-1.019)/(9.5*0.25), -9.5) * math.Pow(1+0.1*pt, -0.5)
	assert.InDelta(t, want, phiFit.Eval(pt), 1e-12)
}

func TestIntegral(t *testing.T) {
	// A huge p2 flattens the power law, leaving f(pt) = pt.
	linear := Fit{P: [5]float64{1, 1, 1e12, 0, 0}, Mass: 0.5}
	assert.InDelta(t, 2, linear.Integral(0, 2), 1e-9)
}

func TestReweighterNormalization(t *testing.T) {
	const n = 20000
	lo, hi := 1.0, 3.0
	ref := hbook.NewH1D(40, lo, hi)
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = lo + (hi-lo)*(float64(i)+0.5)/n
		ref.Fill(pts[i], 1)
	}

	rw, err := NewReweighter(phiFit, ref, 0, 10)
	require.NoError(t, err)

	var sum float64
	for _, pt := range pts {
		w := rw.Weight(pt)
		require.Positive(t, w)
		sum += w
	}
	share := phiFit.Integral(lo, hi) / phiFit.Integral(0, 10)
	assert.InEpsilon(t, share, sum, 1e-4)
	assert.Less(t, sum, 1.0)
}

func TestReweighterErrors(t *testing.T) {
	_, err := NewReweighter(phiFit, hbook.NewH1D(10, 0, 1), 0, 10)
	assert.ErrorIs(t, err, ErrEmptyReference)

	ref := hbook.NewH1D(10, 0, 1)
	ref.Fill(0.5, 1)
	_, err = NewReweighter(Fit{}, ref, 0, 10)
	assert.Error(t, err)
}
