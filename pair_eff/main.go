package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/profile"

	phenix "github.com/Sergeyir/PairAnalysisPhenix-sub002"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/driver"
	"github.com/Sergeyir/PairAnalysisPhenix-sub002/ledger"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options]

Fills the pair registration efficiency histograms of every job of the
configuration (pairs x fields x aux samples x pT deviations).

options:
`, os.Args[0],
	)
	flag.PrintDefaults()
}

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML configuration (defaults are used when empty)")
		run      = flag.String("run", "", "run name, overrides the configuration")
		workers  = flag.Int("t", 0, "number of worker goroutines, overrides the configuration")
		ledgerDB = flag.String("ledger", "", "SQLite job ledger")
		resume   = flag.Bool("resume", false, "skip jobs the ledger knows as done")
		prof     = flag.Bool("profile", false, "write a CPU profile")
	)
	var pairs, fields, aux phenix.StringArrayFlags
	var ptDevs phenix.FloatArrayFlags
	flag.Var(&pairs, "pair", "daughter pair, e.g. kp_km (repeatable)")
	flag.Var(&fields, "field", "magnetic field configuration, e.g. +- (repeatable)")
	flag.Var(&aux, "aux", "auxiliary simulation sample (repeatable)")
	flag.Var(&ptDevs, "ptdev", "momentum scale deviation (repeatable)")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	if *resume && *ledgerDB == "" {
		log.Fatal("-resume needs -ledger")
	}
	if *prof {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	if *run != "" {
		cfg.Run = *run
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if pairs.IsSet() {
		cfg.Pairs = pairs.Array
	}
	if fields.IsSet() {
		cfg.Fields = fields.Array
	}
	if aux.IsSet() {
		cfg.Aux = aux.Array
	}
	if ptDevs.IsSet() {
		cfg.PtDeviations = ptDevs.Array
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	opts := driver.Options{Resume: *resume}
	if *ledgerDB != "" {
		l, err := ledger.Open(*ledgerDB)
		if err != nil {
			log.Fatal(err)
		}
		defer l.Close()
		opts.Ledger = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := driver.Run(ctx, cfg, opts)
	for _, res := range results {
		if res.Skipped {
			continue
		}
		log.Printf("%s: %d events, job %s", res.Job, res.Events, res.ID)
		for _, s := range driver.Strategies(cfg) {
			log.Printf("  %-9s sum of weights %.6g", s, res.SumW[s])
		}
	}
	if err != nil {
		stop()
		log.Fatal(err)
	}
	log.Printf("%d jobs done", len(results))
}
