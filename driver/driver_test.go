package driver_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/deadarea"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/driver"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/embed"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/hist"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/ledger"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/pair"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/simtree"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/spectrum"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/track/tracktest"
)

func TestMain(m *testing.M) {
	driver.SetLogger(nil)
	os.Exit(m.Run())
}

var phiFit = spectrum.Fit{P: [5]float64{12, 9.5, 0.25, 0.1, -0.5}, Mass: species.Phi.Mass}

type memSource struct {
	events []simtree.Event
	ref    *hbook.H1D
}

func newMemSource(events []simtree.Event) *memSource {
	ref := hbook.NewH1D(50, 0, 5)
	for _, ev := range events {
		ref.Fill(ev.TruePt, 1)
	}
	return &memSource{events: events, ref: ref}
}

func (m *memSource) Entries() int64        { return int64(len(m.events)) }
func (m *memSource) Reference() *hbook.H1D { return m.ref }

func (m *memSource) Scan(ctx context.Context, beg, end int64, fn func(*simtree.Event) error) error {
	for i := beg; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&m.events[i]); err != nil {
			return err
		}
	}
	return nil
}

func testConfig(t *testing.T, nbins int) *config.Config {
	t.Helper()
	cfg := tracktest.Config(nbins)
	cfg.Run = "test"
	cfg.OutputDir = t.TempDir()
	cfg.Pairs = []string{"kp_km"}
	cfg.Fields = []string{"+-"}
	cfg.Aux = []string{"lowpt"}
	cfg.PtDeviations = []float64{0}
	require.NoError(t, cfg.Validate())
	return cfg
}

func testTables(nbins int) *driver.Tables {
	return &driver.Tables{
		PosEmb: tracktest.Embedding(species.KPlus.Short, nbins, nil),
		NegEmb: tracktest.Embedding(species.KMinus.Short, nbins, nil),
		PosSys: tracktest.Systematics(0.05, 0.1),
		NegSys: tracktest.Systematics(0.05, 0.1),
		Fit:    phiFit,
	}
}

// randomEvents returns phi decays into two kaons in one arm with random
// detector hits, plus an occasional pion that the kaon classifiers reject.
func randomEvents(n int, seed int64) []simtree.Event {
	rng := rand.New(rand.NewSource(seed))
	hits := func(b *tracktest.Builder) *tracktest.Builder {
		if rng.Intn(3) > 0 {
			b.TOF(rng.Intn(3) > 0)
		}
		if rng.Intn(2) == 0 {
			b.EMC(rng.Intn(2) == 0)
		}
		if rng.Intn(2) == 0 {
			b.PC3()
		}
		if rng.Intn(2) == 0 {
			b.PC2()
		}
		return b
	}

	events := make([]simtree.Event, n)
	for i := range events {
		phi := tracktest.WestPhi
		if rng.Intn(2) == 0 {
			phi = tracktest.EastPhi
		}
		pos := hits(tracktest.New(species.KPlus, 0.5+1.5*rng.Float64(), phi))
		neg := hits(tracktest.New(species.KMinus, 0.5+1.5*rng.Float64(), phi+0.3))
		ev := simtree.Event{
			TruePt: 5 * rng.Float64(),
			TrueID: species.Phi.ID,
			Tracks: []track.Track{pos.Track(), neg.Track()},
		}
		if rng.Intn(4) == 0 {
			ev.Tracks = append(ev.Tracks, tracktest.New(species.PiPlus, 1, phi).TOF(true).Track())
		}
		events[i] = ev
	}
	return events
}

func memOptions(src driver.EventSource, tab *driver.Tables) driver.Options {
	return driver.Options{
		Open:     func(string) (driver.EventSource, error) { return src, nil },
		Tables:   func(*config.Config, config.Job) (*driver.Tables, error) { return tab, nil },
		Progress: io.Discard,
	}
}

func TestProcessEventMixedIdentification(t *testing.T) {
	const nbins = 2
	cfg := testConfig(t, nbins)
	job := cfg.Jobs()[0]

	ev := simtree.Event{
		TruePt: 1.5,
		TrueID: species.Phi.ID,
		Tracks: []track.Track{
			tracktest.New(species.KPlus, 1, tracktest.EastPhi).TOF(true).Track(),
			tracktest.New(species.KMinus, 1, tracktest.EastPhi+0.3).EMC(true).Track(),
		},
	}
	src := newMemSource([]simtree.Event{ev})
	an, err := driver.NewAnalysis(cfg, job, testTables(nbins), src.Reference(), deadarea.None{})
	require.NoError(t, err)

	w := an.NewWorker()
	an.ProcessEvent(&src.events[0], w)
	acc := an.Accumulator()
	acc.Finalize()

	sum := func(s pair.Strategy) (float64, int64) {
		var (
			sumw    float64
			entries int64
		)
		for c := 0; c < nbins; c++ {
			for _, v := range s.Variants() {
				h, ok := acc.H2D(hist.Key{Strategy: s, Variant: v, CBin: c})
				require.True(t, ok)
				sumw += h.SumW()
				entries += h.Entries()
			}
		}
		return sumw, entries
	}

	w1, n1 := sum(pair.OnePID)
	assert.Positive(t, w1)
	assert.Equal(t, int64(3*nbins), n1)
	w0, _ := sum(pair.NoPID)
	assert.GreaterOrEqual(t, w0, w1)
	for _, s := range []pair.Strategy{pair.TwoPID, pair.TOF2PID, pair.EMC2PID} {
		_, n := sum(s)
		assert.Zero(t, n, s.String())
	}
	assert.Equal(t, int64(1), acc.TruePt().Entries())
}

func TestRunWorkersAgree(t *testing.T) {
	const nbins = 3
	events := randomEvents(600, 11)
	tab := testTables(nbins)

	run := func(workers int, chunk int64) driver.Result {
		cfg := testConfig(t, nbins)
		cfg.Workers = workers
		cfg.ChunkSize = chunk
		results, err := driver.Run(context.Background(), cfg, memOptions(newMemSource(events), tab))
		require.NoError(t, err)
		require.Len(t, results, 1)
		return results[0]
	}

	seq := run(1, 1000)
	par := run(4, 7)
	assert.Equal(t, int64(len(events)), seq.Events)
	assert.Equal(t, int64(len(events)), par.Events)
	require.NotEmpty(t, seq.SumW)
	for s, want := range seq.SumW {
		assert.InDelta(t, want, par.SumW[s], 1e-9*math.Abs(want)+1e-12, s.String())
	}

	assert.Greater(t, seq.SumW[pair.NoPID], seq.SumW[pair.OnePID])
	assert.Greater(t, seq.SumW[pair.OnePID], seq.SumW[pair.TwoPID])
	assert.Positive(t, seq.SumW[pair.TwoPID])
	assert.GreaterOrEqual(t, seq.SumW[pair.TwoPID], seq.SumW[pair.TOF2PID])
	assert.GreaterOrEqual(t, seq.SumW[pair.TwoPID], seq.SumW[pair.EMC2PID])
	_, ok := seq.SumW[pair.EMCNoPID]
	assert.False(t, ok)
}

func TestRunWritesOutput(t *testing.T) {
	const nbins = 2
	cfg := testConfig(t, nbins)
	cfg.FillEMCalNoPID = true
	results, err := driver.Run(context.Background(), cfg, memOptions(newMemSource(randomEvents(50, 3)), testTables(nbins)))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, cfg.OutputFile(cfg.Jobs()[0]), results[0].Output)

	f, err := groot.Open(results[0].Output)
	require.NoError(t, err)
	defer f.Close()
	dir := riofs.Dir(f)
	for _, c := range cfg.Centrality {
		for _, s := range driver.Strategies(cfg) {
			for _, v := range s.Variants() {
				_, err := dir.Get(c + "/" + s.HistName(v))
				assert.NoError(t, err)
			}
		}
	}
	for _, name := range []string{hist.TruePtName, "job_id", "job", "events"} {
		_, err := dir.Get(name)
		assert.NoError(t, err, name)
	}
}

func TestRunResume(t *testing.T) {
	const nbins = 1
	cfg := testConfig(t, nbins)
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	opts := memOptions(newMemSource(randomEvents(20, 5)), testTables(nbins))
	opts.Ledger = l
	opts.Resume = true

	first, err := driver.Run(context.Background(), cfg, opts)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].Skipped)
	status, events, err := l.Status(first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Done, status)
	assert.Equal(t, int64(20), events)

	second, err := driver.Run(context.Background(), cfg, opts)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Skipped)
}

// brokenFinish is a ledger whose Finish always fails.
type brokenFinish struct {
	*ledger.Ledger
	ids []uuid.UUID
}

func (l *brokenFinish) Begin(run string, j config.Job, output string) (uuid.UUID, error) {
	id, err := l.Ledger.Begin(run, j, output)
	l.ids = append(l.ids, id)
	return id, err
}

func (l *brokenFinish) Finish(uuid.UUID, int64) error { return errors.New("database is locked") }

func TestRunLedgerFinishFails(t *testing.T) {
	const nbins = 1
	cfg := testConfig(t, nbins)
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	bl := &brokenFinish{Ledger: l}
	opts := memOptions(newMemSource(randomEvents(10, 3)), testTables(nbins))
	opts.Ledger = bl

	_, err = driver.Run(context.Background(), cfg, opts)
	require.Error(t, err)
	require.Len(t, bl.ids, 1)
	status, _, err := l.Status(bl.ids[0])
	require.NoError(t, err)
	assert.Equal(t, ledger.Failed, status)
}

func TestRunErrors(t *testing.T) {
	const nbins = 2
	cfg := testConfig(t, nbins)

	_, err := driver.Run(context.Background(), cfg, memOptions(newMemSource(nil), testTables(nbins)))
	assert.ErrorIs(t, err, simtree.ErrNoEvents)

	tab := testTables(nbins)
	tab.NegEmb = tracktest.Embedding(species.KMinus.Short, nbins+1, nil)
	_, err = driver.Run(context.Background(), cfg, memOptions(newMemSource(randomEvents(5, 1)), tab))
	assert.ErrorIs(t, err, embed.ErrShortRow)

	opts := memOptions(newMemSource(randomEvents(5, 1)), nil)
	opts.Tables = nil
	cfg.TablesDir = t.TempDir()
	_, err = driver.Run(context.Background(), cfg, opts)
	assert.ErrorIs(t, err, embed.ErrMissingFile)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = driver.Run(ctx, cfg, memOptions(newMemSource(randomEvents(5, 1)), testTables(nbins)))
	assert.ErrorIs(t, err, context.Canceled)
}

func writeTableFiles(t *testing.T, cfg *config.Config, job config.Job) {
	t.Helper()
	nbins := cfg.NCentrality()
	row := strings.TrimSpace(strings.Repeat("0.5 ", nbins))
	for _, s := range []species.Species{job.Pair.Pos, job.Pair.Neg} {
		dir := cfg.EmbeddingDir(job.Field)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for det := embed.DCPC1; det < embed.NDetectors; det++ {
			body := strings.Repeat(row+"\n", det.Rows())
			if det == embed.DCPC1 {
				body = strings.ReplaceAll(body, "0.5", "0.8")
			}
			require.NoError(t, os.WriteFile(filepath.Join(dir, s.Short+"_"+det.String()+".txt"), []byte(body), 0o644))
		}

		dir = cfg.SystematicsDir(job.Field)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		sys := strings.TrimSpace(strings.Repeat("0.05 ", 13)) + "\n" + strings.TrimSpace(strings.Repeat("0.1 ", 16)) + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.Short+".txt"), []byte(sys), 0o644))
	}

	path := cfg.SpectrumFile(job.Pair.Resonance)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	fit := fmt.Sprintf("%g %g %g %g %g %g\n", phiFit.P[0], phiFit.P[1], phiFit.P[2], phiFit.P[3], phiFit.P[4], phiFit.Mass)
	require.NoError(t, os.WriteFile(path, []byte(fit), 0o644))
}

func TestRunFromFiles(t *testing.T) {
	const nbins = 2
	cfg := testConfig(t, nbins)
	cfg.TablesDir = filepath.Join(t.TempDir(), "tables")
	cfg.InputDir = filepath.Join(t.TempDir(), "sim")
	job := cfg.Jobs()[0]
	writeTableFiles(t, cfg, job)

	tab, err := driver.LoadTables(cfg, job)
	require.NoError(t, err)
	assert.Equal(t, 0.8, tab.PosEmb.Weight(embed.DCPC1, 0, 1))
	assert.Equal(t, 0.5, tab.NegEmb.Weight(embed.EMCalW, 3, 0))
	assert.Equal(t, phiFit, tab.Fit)

	events := randomEvents(100, 9)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.InputFile(job)), 0o755))
	w, err := simtree.Create(cfg.InputFile(job), hbook.NewH1D(50, 0, 5))
	require.NoError(t, err)
	for i := range events {
		require.NoError(t, w.Write(&events[i]))
	}
	require.NoError(t, w.Close())

	results, err := driver.Run(context.Background(), cfg, driver.Options{Progress: io.Discard})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(len(events)), results[0].Events)
	assert.GreaterOrEqual(t, results[0].SumW[pair.NoPID], results[0].SumW[pair.OnePID])
	assert.GreaterOrEqual(t, results[0].SumW[pair.OnePID], results[0].SumW[pair.TwoPID])
}

func TestRunAggregatesFields(t *testing.T) {
	const nbins = 2
	cfg := testConfig(t, nbins)
	cfg.Fields = []string{"+-", "-+"}
	events := randomEvents(80, 21)

	results, err := driver.Run(context.Background(), cfg, memOptions(newMemSource(events), testTables(nbins)))
	require.NoError(t, err)
	require.Len(t, results, 2)

	job := cfg.Jobs()[0]
	out, err := hist.Open(cfg.AggregateFile(job.Pair, job.PtDeviation))
	require.NoError(t, err)
	defer out.Close()

	for _, s := range []pair.Strategy{pair.NoPID, pair.TwoPID} {
		var got float64
		for _, c := range cfg.Centrality {
			h, err := out.H2D(c, s.HistName(track.Nominal))
			require.NoError(t, err)
			got += h.SumW()
		}
		want := results[0].SumW[s] + results[1].SumW[s]
		assert.InDelta(t, want, got, 1e-9*want+1e-12, s.String())
	}

	n, err := out.Meta("events")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(2*len(events)), n)
	gen, err := out.TruePt()
	require.NoError(t, err)
	assert.Positive(t, gen.SumW())

	cfg.Aggregate = false
	cfg.OutputDir = t.TempDir()
	_, err = driver.Run(context.Background(), cfg, memOptions(newMemSource(events), testTables(nbins)))
	require.NoError(t, err)
	_, err = os.Stat(cfg.AggregateFile(job.Pair, job.PtDeviation))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
