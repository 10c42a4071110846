package hist

import (
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

var (
	testBinning    = config.Binning{PtBins: 10, PtMin: 0, PtMax: 5, MassBins: 20, MassMin: 0.9, MassMax: 1.1}
	testCBins      = []string{"0-20", "20-93"}
	testStrategies = []pair.Strategy{pair.NoPID, pair.OnePID, pair.TwoPID, pair.TOF2PID, pair.EMC2PID}
)

type fillArgs struct {
	s        pair.Strategy
	v        track.Variant
	cbin     int
	pt, mass float64
	w        float64
}

// randomFills draws fills with dyadic weights so that sums do not depend on
// the merge order.
func randomFills(n int, seed int64) []fillArgs {
	rng := rand.New(rand.NewSource(seed))
	fills := make([]fillArgs, n)
	for i := range fills {
		s := testStrategies[rng.Intn(len(testStrategies))]
		vs := s.Variants()
		fills[i] = fillArgs{
			s:    s,
			v:    vs[rng.Intn(len(vs))],
			cbin: rng.Intn(len(testCBins)),
			pt:   5 * rng.Float64(),
			mass: 0.9 + 0.2*rng.Float64(),
			w:    float64(rng.Intn(8)) / 8,
		}
	}
	return fills
}

func gridOf(h *hbook.H2D) []float64 {
	g := h.GridXYZ()
	nx, ny := g.Dims()
	z := make([]float64, 0, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			z = append(z, g.Z(i, j))
		}
	}
	return z
}

func TestConcurrentFillMatchesSequential(t *testing.T) {
	const workers = 8
	fills := randomFills(20000, 1)

	seq := NewAccumulator(testBinning, testCBins, testStrategies)
	buf := seq.Buffer()
	for _, f := range fills {
		buf.Fill(f.s, f.v, f.cbin, f.pt, f.mass, f.w)
		buf.FillTruePt(f.pt, f.w)
	}
	seq.Finalize()

	par := NewAccumulator(testBinning, testCBins, testStrategies)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		buf := par.Buffer()
		buf.limit = 97
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(fills); i += workers {
				f := fills[i]
				buf.Fill(f.s, f.v, f.cbin, f.pt, f.mass, f.w)
				buf.FillTruePt(f.pt, f.w)
			}
		}(w)
	}
	wg.Wait()
	par.Finalize()

	require.Equal(t, seq.Keys(), par.Keys())
	for _, k := range seq.Keys() {
		hs, ok := seq.H2D(k)
		require.True(t, ok)
		hp, ok := par.H2D(k)
		require.True(t, ok)
		assert.Equal(t, hs.Entries(), hp.Entries(), "%+v", k)
		assert.Equal(t, hs.SumW(), hp.SumW(), "%+v", k)
		assert.Equal(t, gridOf(hs), gridOf(hp), "%+v", k)
	}
	assert.Equal(t, seq.TruePt().SumW(), par.TruePt().SumW())
	assert.Equal(t, int64(len(fills)), par.TruePt().Entries())
}

func TestKeys(t *testing.T) {
	acc := NewAccumulator(testBinning, testCBins, []pair.Strategy{pair.NoPID, pair.TOF2PID})
	assert.Len(t, acc.Keys(), (3+5)*len(testCBins))

	acc.Finalize()
	_, ok := acc.H2D(Key{Strategy: pair.EMC2PID})
	assert.False(t, ok)
	h, ok := acc.H2D(Key{Strategy: pair.TOF2PID, Variant: track.PIDDown, CBin: 1})
	require.True(t, ok)
	assert.Equal(t, "tof2pid_m2eff_down", h.Name())
}

func TestFinalizeFlushesBuffers(t *testing.T) {
	acc := NewAccumulator(testBinning, testCBins, testStrategies)
	buf := acc.Buffer()
	buf.Fill(pair.NoPID, track.Nominal, 0, 1, 1, 0.5)
	buf.Fill(pair.NoPID, track.Nominal, 0, 2, 1, 0.25)
	assert.Equal(t, 2, buf.Len())

	assert.Panics(t, func() { acc.SumW(Key{Strategy: pair.NoPID}) })

	acc.Finalize()
	acc.Finalize()
	assert.Zero(t, buf.Len())
	assert.Equal(t, 0.75, acc.SumW(Key{Strategy: pair.NoPID}))

	assert.Panics(t, func() { acc.Buffer() })
	buf.Fill(pair.NoPID, track.Nominal, 0, 1, 1, 1)
	assert.Panics(t, func() { buf.Flush() })
}

func TestUnknownKeyPanics(t *testing.T) {
	acc := NewAccumulator(testBinning, testCBins, []pair.Strategy{pair.NoPID})
	buf := acc.Buffer()
	buf.Fill(pair.EMCNoPID, track.Nominal, 0, 1, 1, 1)
	assert.Panics(t, func() { buf.Flush() })
}

func TestWrite(t *testing.T) {
	acc := NewAccumulator(testBinning, testCBins, testStrategies)
	buf := acc.Buffer()
	buf.Fill(pair.TwoPID, track.AccUp, 1, 1.25, 1.02, 0.5)
	buf.Fill(pair.TwoPID, track.AccUp, 1, 1.25, 1.02, 0.25)
	buf.FillTruePt(1.25, 2)
	acc.Finalize()

	path := filepath.Join(t.TempDir(), "out.root")
	require.NoError(t, acc.Write(path, map[string]string{"run_id": "abc", "job": "kp_km/+-/lowpt/ptdev+0.000"}))

	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dir := riofs.Dir(f)

	obj, err := dir.Get("20-93/2pid_acc_up")
	require.NoError(t, err)
	h2, ok := obj.(rhist.H2)
	require.True(t, ok, "%T", obj)
	assert.Equal(t, 0.75, rootcnv.H2D(h2).SumW())

	obj, err = dir.Get("0-20/nopid")
	require.NoError(t, err)
	assert.Zero(t, rootcnv.H2D(obj.(rhist.H2)).SumW())

	obj, err = dir.Get(TruePtName)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rootcnv.H1D(obj.(rhist.H1)).SumW())

	obj, err = dir.Get("run_id")
	require.NoError(t, err)
	assert.Equal(t, "abc", obj.(*rbase.ObjString).String())
}

func TestAggregate(t *testing.T) {
	agg := NewAccumulator(testBinning, testCBins, testStrategies)
	k := Key{Strategy: pair.TwoPID, Variant: track.PIDUp, CBin: 1}

	for _, w := range []float64{0.5, 0.25} {
		acc := NewAccumulator(testBinning, testCBins, testStrategies)
		acc.Aggregate(agg)
		buf := acc.Buffer()
		buf.Fill(k.Strategy, k.Variant, k.CBin, 2.25, 1.0, w)
		buf.FillTruePt(2.25, 1)
		acc.Finalize()
		assert.Equal(t, w, acc.SumW(k))
	}

	agg.Finalize()
	assert.Equal(t, 0.75, agg.SumW(k))
	assert.Equal(t, 2.0, agg.TruePt().SumW())
	h, ok := agg.H2D(k)
	require.True(t, ok)
	assert.Equal(t, int64(2), h.Entries())

	late := NewAccumulator(testBinning, testCBins, testStrategies)
	late.Aggregate(agg)
	late.Buffer().Fill(k.Strategy, k.Variant, k.CBin, 2.25, 1.0, 1)
	assert.Panics(t, func() { late.Finalize() }, "aggregate already finalized")
}
