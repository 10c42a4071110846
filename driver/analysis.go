package driver

import (
	"fmt"

	"go-hep.org/x/hep/hbook"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/deadarea"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/embed"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/hist"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/simtree"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/spectrum"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// Tables are the read-only inputs of a job besides the events.
type Tables struct {
	PosEmb, NegEmb *embed.Embedding
	PosSys, NegSys *embed.Systematics
	Fit            spectrum.Fit
}

// LoadTables reads the embedding, systematics and spectrum files of a job.
func LoadTables(cfg *config.Config, j config.Job) (*Tables, error) {
	nbins := cfg.NCentrality()
	pos, neg := j.Pair.Pos, j.Pair.Neg

	var (
		tab Tables
		err error
	)
	if tab.PosEmb, err = embed.LoadEmbedding(cfg.EmbeddingDir(j.Field), pos.Short, nbins); err != nil {
		return nil, err
	}
	if tab.NegEmb, err = embed.LoadEmbedding(cfg.EmbeddingDir(j.Field), neg.Short, nbins); err != nil {
		return nil, err
	}
	if tab.PosSys, err = embed.LoadSystematics(cfg.SystematicsDir(j.Field), pos.Short); err != nil {
		return nil, err
	}
	if tab.NegSys, err = embed.LoadSystematics(cfg.SystematicsDir(j.Field), neg.Short); err != nil {
		return nil, err
	}
	if tab.Fit, err = spectrum.LoadFit(cfg.SpectrumFile(j.Pair.Resonance)); err != nil {
		return nil, err
	}
	return &tab, nil
}

// Strategies lists the strategies a configuration fills.
func Strategies(cfg *config.Config) []pair.Strategy {
	s := []pair.Strategy{pair.NoPID, pair.OnePID, pair.TwoPID, pair.TOF2PID, pair.EMC2PID}
	if cfg.FillEMCalNoPID {
		s = append(s, pair.EMCNoPID)
	}
	return s
}

// Analysis processes the events of one job. Everything but the accumulator
// is read-only, so one Analysis serves every worker.
type Analysis struct {
	pos, neg *track.Classifier
	comb     *pair.Combiner
	rw       *spectrum.Reweighter
	acc      *hist.Accumulator
}

// NewAnalysis prepares the classifiers, the pair combiner, the spectrum
// weights normalized to ref, and the histograms of job j.
func NewAnalysis(cfg *config.Config, j config.Job, tab *Tables, ref *hbook.H1D, oracle deadarea.Oracle) (*Analysis, error) {
	pos, err := track.NewClassifier(cfg, j.Pair.Pos, tab.PosEmb, tab.PosSys, oracle, j.PtDeviation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j, err)
	}
	neg, err := track.NewClassifier(cfg, j.Pair.Neg, tab.NegEmb, tab.NegSys, oracle, j.PtDeviation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j, err)
	}
	rw, err := spectrum.NewReweighter(tab.Fit, ref, cfg.Spectrum.Lo, cfg.Spectrum.Hi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j, err)
	}
	return &Analysis{
		pos:  pos,
		neg:  neg,
		comb: pair.NewCombiner(cfg),
		rw:   rw,
		acc:  hist.NewAccumulator(cfg.Binning, cfg.Centrality, Strategies(cfg)),
	}, nil
}

// Accumulator returns the histograms the analysis fills.
func (a *Analysis) Accumulator() *hist.Accumulator { return a.acc }

// Worker is the private state of one goroutine: its histogram buffer and the
// candidate sets reused across events.
type Worker struct {
	buf      *hist.Buffer
	pos, neg track.Set
}

func (a *Analysis) NewWorker() *Worker {
	return &Worker{buf: a.acc.Buffer()}
}

// ProcessEvent classifies the tracks of ev and fills every (positive,
// negative) candidate pair with the spectrum weight of the event.
func (a *Analysis) ProcessEvent(ev *simtree.Event, w *Worker) {
	w.pos.Reset()
	w.neg.Reset()

	weight := a.rw.Weight(ev.TruePt)
	w.buf.FillTruePt(ev.TruePt, weight)

	for i := range ev.Tracks {
		t := &ev.Tracks[i]
		switch {
		case t.Charge > 0:
			a.pos.Classify(t, i, &w.pos)
		case t.Charge < 0:
			a.neg.Classify(t, i, &w.neg)
		}
	}

	for i := 0; i < w.pos.Len(); i++ {
		p := w.pos.At(i)
		for j := 0; j < w.neg.Len(); j++ {
			a.comb.Fill(w.buf, p, w.neg.At(j), weight)
		}
	}
}
