// Package driver runs the pair efficiency jobs of a configuration: it loads
// the tables of every job, fans the events out to a pool of workers and
// writes the resulting histograms.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/deadarea"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/ledger"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/simtree"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
)

// EventSource is a simulation sample that can be scanned by range from
// several goroutines at once.
type EventSource interface {
	Entries() int64
	Reference() *hbook.H1D
	Scan(ctx context.Context, beg, end int64, fn func(*simtree.Event) error) error
}

// Ledger records the jobs of a run. *ledger.Ledger is the SQLite
// implementation.
type Ledger interface {
	Begin(run string, j config.Job, output string) (uuid.UUID, error)
	Finish(id uuid.UUID, events int64) error
	Fail(id uuid.UUID, err error) error
	Done(run string, j config.Job) (bool, error)
}

var _ Ledger = (*ledger.Ledger)(nil)

// ProgressInterval is how often the progress line is redrawn.
const ProgressInterval = 20 * time.Millisecond

type Options struct {
	// Open opens the simulation sample of a job; simtree.Open by default.
	Open func(path string) (EventSource, error)
	// Tables loads the tables of a job; LoadTables by default.
	Tables func(*config.Config, config.Job) (*Tables, error)
	// Oracle flags dead detector areas; built from the configuration by default.
	Oracle deadarea.Oracle

	// Ledger, if not nil, records every job. With Resume, jobs the ledger
	// knows as done are skipped.
	Ledger Ledger
	Resume bool

	// Progress receives the progress line; os.Stderr by default.
	Progress io.Writer
}

// Result summarizes one job.
type Result struct {
	Job     config.Job
	ID      uuid.UUID
	Output  string
	Events  int64
	Skipped bool

	// SumW holds the nominal sum of weights of every strategy over all
	// centrality classes.
	SumW map[pair.Strategy]float64
}

func (o *Options) defaults(cfg *config.Config) {
	if o.Open == nil {
		o.Open = func(path string) (EventSource, error) { return simtree.Open(path) }
	}
	if o.Tables == nil {
		o.Tables = LoadTables
	}
	if o.Oracle == nil {
		o.Oracle = deadarea.NewMap(cfg.Dead)
	}
	if o.Progress == nil {
		o.Progress = os.Stderr
	}
}

// Run processes every job of cfg in queue order and stops at the first error.
// With cfg.Aggregate, the jobs of each daughter pair and pT deviation are
// also summed into one file once the pair is done.
func Run(ctx context.Context, cfg *config.Config, opts Options) ([]Result, error) {
	opts.defaults(cfg)
	var (
		results []Result
		aggs    *aggregates
	)
	if cfg.Aggregate {
		aggs = newAggregates(cfg)
	}
	jobs := cfg.Jobs()
	for i, j := range jobs {
		var g *group
		if aggs != nil {
			g = aggs.get(j)
		}
		res, err := runJob(ctx, cfg, j, &opts, g)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		if aggs != nil && (i == len(jobs)-1 || jobs[i+1].Pair.Key() != j.Pair.Key()) {
			if err := aggs.flush(); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func runJob(ctx context.Context, cfg *config.Config, j config.Job, opts *Options, g *group) (Result, error) {
	res := Result{Job: j, Output: cfg.OutputFile(j)}

	if opts.Ledger != nil && opts.Resume {
		done, err := opts.Ledger.Done(cfg.Run, j)
		if err != nil {
			return res, err
		}
		if done {
			Logf("%s: already done, skipping", j)
			res.Skipped = true
			if g != nil {
				g.complete = false
			}
			return res, nil
		}
	}

	tab, err := opts.Tables(cfg, j)
	if err != nil {
		return res, fmt.Errorf("%s: %w", j, err)
	}
	src, err := opts.Open(cfg.InputFile(j))
	if err != nil {
		return res, fmt.Errorf("%s: %w", j, err)
	}
	if src.Entries() <= 0 {
		return res, fmt.Errorf("%s: %w", j, simtree.ErrNoEvents)
	}
	an, err := NewAnalysis(cfg, j, tab, src.Reference(), opts.Oracle)
	if err != nil {
		return res, err
	}
	if g != nil {
		an.Accumulator().Aggregate(g.acc)
	}

	res.ID = uuid.New()
	if opts.Ledger != nil {
		if res.ID, err = opts.Ledger.Begin(cfg.Run, j, res.Output); err != nil {
			return res, err
		}
	}
	fail := func(err error) (Result, error) {
		if opts.Ledger != nil {
			if lerr := opts.Ledger.Fail(res.ID, err); lerr != nil {
				Logf("%s: %v", j, lerr)
			}
		}
		return res, err
	}

	Logf("%s: processing %d events of %s", j, src.Entries(), cfg.InputFile(j))
	start := time.Now()
	res.Events, err = process(ctx, cfg, j, an, src, opts.Progress)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", j, err))
	}

	acc := an.Accumulator()
	acc.Finalize()
	if err := os.MkdirAll(filepath.Dir(res.Output), 0o755); err != nil {
		return fail(err)
	}
	meta := map[string]string{
		"job_id":  res.ID.String(),
		"run":     cfg.Run,
		"job":     j.String(),
		"input":   cfg.InputFile(j),
		"events":  fmt.Sprint(res.Events),
		"created": time.Now().UTC().Format(time.RFC3339),
	}
	if err := acc.Write(res.Output, meta); err != nil {
		return fail(err)
	}

	res.SumW = make(map[pair.Strategy]float64)
	for _, k := range acc.Keys() {
		if k.Variant == track.Nominal {
			res.SumW[k.Strategy] += acc.SumW(k)
		}
	}
	if opts.Ledger != nil {
		if err := opts.Ledger.Finish(res.ID, res.Events); err != nil {
			return fail(err)
		}
	}
	if g != nil {
		g.jobs = append(g.jobs, j.String())
		g.events += res.Events
	}
	Logf("%s: wrote %s in %v", j, res.Output, time.Since(start).Round(time.Millisecond))
	return res, nil
}

// process splits the entries of src into chunks handled by cfg.Workers
// goroutines, each with its own histogram buffer.
func process(ctx context.Context, cfg *config.Config, j config.Job, an *Analysis, src EventSource, progress io.Writer) (int64, error) {
	total := src.Entries()
	nchunks := (total + cfg.ChunkSize - 1) / cfg.ChunkSize

	var processed, next atomic.Int64
	stop := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor(progress, j.String(), &processed, total, stop)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		wk := an.NewWorker()
		g.Go(func() error {
			defer wk.buf.Flush()
			for {
				c := next.Add(1) - 1
				if c >= nchunks {
					return nil
				}
				beg := c * cfg.ChunkSize
				end := min(beg+cfg.ChunkSize, total)
				err := src.Scan(gctx, beg, end, func(ev *simtree.Event) error {
					an.ProcessEvent(ev, wk)
					processed.Add(1)
					return nil
				})
				if err != nil {
					return fmt.Errorf("entries [%d, %d): %w", beg, end, err)
				}
			}
		})
	}
	err := g.Wait()
	close(stop)
	<-monitorDone
	return processed.Load(), err
}

// monitor redraws the progress line until stop is closed.
func monitor(w io.Writer, label string, processed *atomic.Int64, total int64, stop <-chan struct{}) {
	ticker := time.NewTicker(ProgressInterval)
	defer ticker.Stop()
	draw := func() {
		n := processed.Load()
		fmt.Fprintf(w, "\r%s: %d/%d events (%.1f%%)", label, n, total, 100*float64(n)/float64(total))
	}
	for {
		select {
		case <-stop:
			draw()
			fmt.Fprintln(w)
			return
		case <-ticker.C:
			draw()
		}
	}
}
