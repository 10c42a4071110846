// Package hist accumulates the weighted (pair pT, invariant mass) histograms of
// one job and writes them to a ROOT file.
//
// Workers never touch the shared histograms directly: each one fills its own
// Buffer which is merged into the shared totals in batches. Finalize merges
// what is left and freezes the accumulator.
package hist

import (
	"fmt"
	"sort"
	"sync"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// TruePtName is the histogram of the reweighted generated pT spectrum.
const TruePtName = "true_pt"

// Key identifies one histogram.
type Key struct {
	Strategy pair.Strategy
	Variant  track.Variant
	CBin     int
}

// Accumulator owns the histograms of one job.
type Accumulator struct {
	cbins []string
	keys  []Key

	mu      sync.Mutex
	h2      map[Key]*hbook.H2D
	truePt  *hbook.H1D
	buffers []*Buffer
	final   bool
	agg     *Accumulator
}

// NewAccumulator allocates one histogram per strategy, variant of that
// strategy and centrality class.
func NewAccumulator(b config.Binning, cbins []string, strategies []pair.Strategy) *Accumulator {
	acc := &Accumulator{
		cbins:  cbins,
		h2:     make(map[Key]*hbook.H2D),
		truePt: hbook.NewH1D(b.PtBins, b.PtMin, b.PtMax),
	}
	acc.truePt.Annotation()["name"] = TruePtName
	acc.truePt.Annotation()["title"] = "reweighted generated pT"

	for _, s := range strategies {
		for _, v := range s.Variants() {
			for c := range cbins {
				k := Key{Strategy: s, Variant: v, CBin: c}
				h := hbook.NewH2D(b.PtBins, b.PtMin, b.PtMax, b.MassBins, b.MassMin, b.MassMax)
				h.Annotation()["name"] = s.HistName(v)
				h.Annotation()["title"] = fmt.Sprintf("%s %s %s;pT (GeV);mass (GeV)", s, v, cbins[c])
				acc.h2[k] = h
				acc.keys = append(acc.keys, k)
			}
		}
	}
	return acc
}

// Keys lists the histograms in allocation order.
func (a *Accumulator) Keys() []Key { return a.keys }

// Buffer returns a new worker-owned buffer. The buffer is not safe for
// concurrent use; every worker needs its own.
func (a *Accumulator) Buffer() *Buffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final {
		panic("hist: Buffer after Finalize")
	}
	b := &Buffer{acc: a, limit: defaultBatch}
	a.buffers = append(a.buffers, b)
	return b
}

// Finalize merges every outstanding buffer. It is idempotent; buffers must
// not be filled afterwards.
func (a *Accumulator) Finalize() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final {
		return
	}
	for _, b := range a.buffers {
		a.merge(b)
	}
	a.buffers = nil
	a.final = true
}

// Aggregate makes every fill merged into a count in agg as well. agg must
// hold every key of a; it is never finalized by a.
func (a *Accumulator) Aggregate(agg *Accumulator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.agg = agg
}

// merge applies the pending fills of b. The caller holds a.mu.
func (a *Accumulator) merge(b *Buffer) {
	a.apply(b.pairs, b.truePt)
	if a.agg != nil {
		a.agg.add(b.pairs, b.truePt)
	}
	b.pairs = b.pairs[:0]
	b.truePt = b.truePt[:0]
}

func (a *Accumulator) add(pairs []pairFill, truePt []ptFill) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apply(pairs, truePt)
}

func (a *Accumulator) apply(pairs []pairFill, truePt []ptFill) {
	if a.final {
		panic("hist: fill after Finalize")
	}
	for _, f := range pairs {
		h, ok := a.h2[f.key]
		if !ok {
			panic(fmt.Sprintf("hist: no histogram for %+v", f.key))
		}
		h.Fill(f.x, f.y, f.w)
	}
	for _, f := range truePt {
		a.truePt.Fill(f.x, f.w)
	}
}

// H2D returns the histogram of k once the accumulator is finalized.
func (a *Accumulator) H2D(k Key) (*hbook.H2D, bool) {
	a.mustBeFinal()
	h, ok := a.h2[k]
	return h, ok
}

// TruePt returns the generated spectrum once the accumulator is finalized.
func (a *Accumulator) TruePt() *hbook.H1D {
	a.mustBeFinal()
	return a.truePt
}

// SumW returns the sum of the weights filled into the histogram of k.
func (a *Accumulator) SumW(k Key) float64 {
	h, ok := a.H2D(k)
	if !ok {
		return 0
	}
	return h.SumW()
}

func (a *Accumulator) mustBeFinal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.final {
		panic("hist: accumulator read before Finalize")
	}
}

// Write stores the histograms in a new ROOT file: one directory per
// centrality class holding the pair histograms, the generated spectrum and
// the meta strings at the top level.
func (a *Accumulator) Write(path string, meta map[string]string) error {
	a.mustBeFinal()

	f, err := groot.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	top := riofs.Dir(f)
	dirs := make([]riofs.Directory, len(a.cbins))
	for i, name := range a.cbins {
		dirs[i], err = top.Mkdir(name)
		if err != nil {
			return fmt.Errorf("could not create directory %s: %w", name, err)
		}
	}
	for _, k := range a.keys {
		h := a.h2[k]
		if err := dirs[k.CBin].Put(h.Name(), rootcnv.FromH2D(h)); err != nil {
			return fmt.Errorf("could not write %s/%s: %w", a.cbins[k.CBin], h.Name(), err)
		}
	}
	if err := top.Put(TruePtName, rootcnv.FromH1D(a.truePt)); err != nil {
		return fmt.Errorf("could not write %s: %w", TruePtName, err)
	}

	names := make([]string, 0, len(meta))
	for k := range meta {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := top.Put(k, rbase.NewObjString(meta[k])); err != nil {
			return fmt.Errorf("could not write meta %s: %w", k, err)
		}
	}
	return f.Close()
}
