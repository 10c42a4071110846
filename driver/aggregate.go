package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/hist"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

// group sums the jobs of one daughter pair and pT deviation.
type group struct {
	acc      *hist.Accumulator
	jobs     []string
	events   int64
	complete bool
}

// aggregates holds the groups of the daughter pair in progress. Jobs come
// pair by pair, so a pair's groups are complete once the next pair starts.
type aggregates struct {
	cfg    *config.Config
	pair   species.Pair
	groups map[float64]*group
}

func newAggregates(cfg *config.Config) *aggregates {
	return &aggregates{cfg: cfg, groups: make(map[float64]*group)}
}

func (a *aggregates) get(j config.Job) *group {
	g, ok := a.groups[j.PtDeviation]
	if !ok {
		a.pair = j.Pair
		g = &group{
			acc:      hist.NewAccumulator(a.cfg.Binning, a.cfg.Centrality, Strategies(a.cfg)),
			complete: true,
		}
		a.groups[j.PtDeviation] = g
	}
	return g
}

// flush writes the groups of the current pair and forgets them. Groups with
// a skipped job are not written since they would miss its events.
func (a *aggregates) flush() error {
	for dev, g := range a.groups {
		path := a.cfg.AggregateFile(a.pair, dev)
		if !g.complete {
			Logf("%s: not every job was processed, %s not written", a.pair.Key(), path)
			continue
		}
		g.acc.Finalize()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		meta := map[string]string{
			"run":     a.cfg.Run,
			"pair":    a.pair.Key(),
			"jobs":    strings.Join(g.jobs, " "),
			"events":  fmt.Sprint(g.events),
			"created": time.Now().UTC().Format(time.RFC3339),
		}
		if err := g.acc.Write(path, meta); err != nil {
			return err
		}
		Logf("%s: wrote aggregate of %d jobs to %s", a.pair.Key(), len(g.jobs), path)
	}
	clear(a.groups)
	return nil
}
