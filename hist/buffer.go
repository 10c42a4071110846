package hist

import (
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

const defaultBatch = 1 << 14

var _ pair.Filler = (*Buffer)(nil)

type pairFill struct {
	key     Key
	x, y, w float64
}

type ptFill struct {
	x, w float64
}

// Buffer collects the fills of one worker and hands them to the accumulator
// in batches.
type Buffer struct {
	acc    *Accumulator
	limit  int
	pairs  []pairFill
	truePt []ptFill
}

// Fill records a weighted pair fill. It implements pair.Filler.
func (b *Buffer) Fill(s pair.Strategy, v track.Variant, cbin int, pt, mass, w float64) {
	b.pairs = append(b.pairs, pairFill{key: Key{Strategy: s, Variant: v, CBin: cbin}, x: pt, y: mass, w: w})
	if len(b.pairs) >= b.limit {
		b.Flush()
	}
}

// FillTruePt records one event of the generated spectrum.
func (b *Buffer) FillTruePt(pt, w float64) {
	b.truePt = append(b.truePt, ptFill{x: pt, w: w})
	if len(b.truePt) >= b.limit {
		b.Flush()
	}
}

// Len is the number of fills waiting to be merged.
func (b *Buffer) Len() int { return len(b.pairs) + len(b.truePt) }

// Flush merges the pending fills into the accumulator.
func (b *Buffer) Flush() {
	if b.Len() == 0 {
		return
	}
	b.acc.mu.Lock()
	defer b.acc.mu.Unlock()
	b.acc.merge(b)
}
