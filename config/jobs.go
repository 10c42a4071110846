package config

import (
	"fmt"
	"path/filepath"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

// Job is one unit of work: a daughter pair in one magnetic field
// configuration, one auxiliary simulation sample and one momentum scale
// deviation.
type Job struct {
	Pair        species.Pair
	Field       string
	Aux         string
	PtDeviation float64
}

func (j Job) String() string {
	return fmt.Sprintf("%s/%s/%s/ptdev%+.3f", j.Pair.Key(), j.Field, j.Aux, j.PtDeviation)
}

// Jobs enumerates the job queues in nesting order pair, field, aux, pT deviation.
// The configuration must have been validated.
func (c *Config) Jobs() []Job {
	var jobs []Job
	for _, key := range c.Pairs {
		pair, err := species.ParsePair(key)
		if err != nil {
			continue
		}
		for _, field := range c.Fields {
			for _, aux := range c.Aux {
				for _, dev := range c.PtDeviations {
					jobs = append(jobs, Job{Pair: pair, Field: field, Aux: aux, PtDeviation: dev})
				}
			}
		}
	}
	return jobs
}

// InputFile is the simulation tree of a job.
func (c *Config) InputFile(j Job) string {
	return filepath.Join(c.InputDir, j.Field, j.Aux, j.Pair.Key()+".root")
}

// OutputFile is where the histograms of a job are written.
func (c *Config) OutputFile(j Job) string {
	name := fmt.Sprintf("%s_%s_ptdev%+.3f.root", fieldTag(j.Field), j.Aux, j.PtDeviation)
	return filepath.Join(c.OutputDir, c.Run, j.Pair.Key(), name)
}

// AggregateFile is where the jobs of a daughter pair and pT deviation are
// summed over fields and auxiliary samples.
func (c *Config) AggregateFile(p species.Pair, ptDeviation float64) string {
	name := fmt.Sprintf("%s_ptdev%+.3f.root", p.Key(), ptDeviation)
	return filepath.Join(c.OutputDir, c.Run, name)
}

func fieldTag(field string) string {
	switch field {
	case "+-":
		return "pm"
	case "-+":
		return "mp"
	case "++":
		return "pp"
	case "--":
		return "mm"
	}
	return field
}
