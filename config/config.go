// Package config holds the immutable configuration of a pair efficiency run.
//
// A Config is built once, from defaults and an optional YAML file, and then
// passed by pointer to everything that needs it. Nothing in this module reads
// run parameters from global state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/species"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Run       string `yaml:"run"`
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	TablesDir string `yaml:"tables_dir"`

	// Centrality holds the names of the centrality classes; the embedding
	// tables carry one value per class in the same order.
	Centrality []string `yaml:"centrality"`

	Pairs        []string  `yaml:"pairs"`
	Fields       []string  `yaml:"fields"`
	Aux          []string  `yaml:"aux"`
	PtDeviations []float64 `yaml:"pt_deviations"`

	Workers int `yaml:"workers"`
	// ChunkSize is the number of entries a worker reads per task.
	ChunkSize int64 `yaml:"chunk_size"`

	Binning  Binning   `yaml:"binning"`
	Cuts     Cuts      `yaml:"cuts"`
	M2       M2Params  `yaml:"m2"`
	EMCalID  EMCalIDs  `yaml:"emcal_id"`
	Dead     DeadAreas `yaml:"dead_areas"`
	Spectrum Range     `yaml:"spectrum_range"`

	// PairPtLegacy reproduces the historical pair pT that summed the y
	// component of the positive track twice.
	PairPtLegacy bool `yaml:"pair_pt_legacy"`
	// EMCalIDLegacyFallthrough applies the proton EMCal identification
	// calibration to pions and kaons as well, as older outputs did.
	EMCalIDLegacyFallthrough bool `yaml:"emcal_id_legacy_fallthrough"`
	// FillEMCalNoPID enables the EMCal registration-only strategy.
	FillEMCalNoPID bool `yaml:"fill_emcal_no_pid"`
	// Aggregate sums the jobs of a daughter pair and pT deviation over all
	// field configurations and auxiliary samples into one more file.
	Aggregate bool `yaml:"aggregate"`
}

type Binning struct {
	PtBins   int     `yaml:"pt_bins"`
	PtMin    float64 `yaml:"pt_min"`
	PtMax    float64 `yaml:"pt_max"`
	MassBins int     `yaml:"mass_bins"`
	MassMin  float64 `yaml:"mass_min"`
	MassMax  float64 `yaml:"mass_max"`
}

type Cuts struct {
	DCQuality []int   `yaml:"dc_quality"`
	MaxZed    float64 `yaml:"max_zed"`
	MinPt     float64 `yaml:"min_pt"`
	MaxPt     float64 `yaml:"max_pt"`
	// MatchSigma is the window on the normalized track-hit residuals
	// (sdphi, sdz) for PC2, PC3, TOF and EMCal.
	MatchSigma float64 `yaml:"match_sigma"`
	// M2Sigma is the identification window on the m2 band.
	M2Sigma float64 `yaml:"m2_sigma"`
	// MinEcore rejects EMCal clusters below this energy (GeV).
	MinEcore float64 `yaml:"min_ecore"`
	// RequireTruthMatch drops tracks whose Monte-Carlo species differs
	// from the expected daughter.
	RequireTruthMatch bool `yaml:"require_truth_match"`
}

// Resolution holds the parameters of the m2 resolution model of one
// timing detector.
type Resolution struct {
	SigmaAlpha float64 `yaml:"sigma_alpha"` // mrad GeV
	SigmaMS    float64 `yaml:"sigma_ms"`    // mrad GeV
	SigmaT     float64 `yaml:"sigma_t"`     // ns
	K1         float64 `yaml:"k1"`          // mrad GeV
}

type M2Params struct {
	TOFe  Resolution `yaml:"tofe"`
	TOFw  Resolution `yaml:"tofw"`
	EMCal Resolution `yaml:"emcal"`
}

// EMCalIDParam parametrizes the EMCal identification efficiency as
// A - B*exp(-C*p).
type EMCalIDParam struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

// EMCalIDs is keyed by the absolute PDG code.
type EMCalIDs map[int]EMCalIDParam

type Rect struct {
	// Arm restricts the rectangle to one arm (0 east, 1 west); -1 matches both.
	Arm int     `yaml:"arm"`
	X0  float64 `yaml:"x0"`
	X1  float64 `yaml:"x1"`
	Y0  float64 `yaml:"y0"`
	Y1  float64 `yaml:"y1"`
}

type Tower struct {
	Arm    int `yaml:"arm"`
	Sector int `yaml:"sector"`
	Y      int `yaml:"y"`
	Z      int `yaml:"z"`
}

type DeadAreas struct {
	DCPC1      []Rect  `yaml:"dc_pc1"` // (board, alpha)
	PC2        []Rect  `yaml:"pc2"`    // (z, y)
	PC3        []Rect  `yaml:"pc3"`    // (z, y)
	TOFeSlats  []int   `yaml:"tofe_slats"`
	TOFwStrips []int   `yaml:"tofw_strips"`
	EMCal      []Tower `yaml:"emcal"`
}

type Range struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Run:          "run7AuAu",
		InputDir:     "data/sim",
		OutputDir:    "output",
		TablesDir:    "data/tables",
		Centrality:   []string{"0-20", "20-40", "40-60", "60-93", "MB"},
		Pairs:        []string{"kp_km"},
		Fields:       []string{"+-", "-+"},
		Aux:          []string{"lowpt", "highpt"},
		PtDeviations: []float64{0},
		Workers:      runtime.NumCPU(),
		ChunkSize:    10000,
		Binning: Binning{
			PtBins: 50, PtMin: 0, PtMax: 10,
			MassBins: 300, MassMin: 0.2, MassMax: 2.0,
		},
		Cuts: Cuts{
			DCQuality:         []int{63, 31},
			MaxZed:            75,
			MinPt:             0.3,
			MaxPt:             8,
			MatchSigma:        2,
			M2Sigma:           2,
			MinEcore:          0.1,
			RequireTruthMatch: true,
		},
		M2: M2Params{
			TOFe:  Resolution{SigmaAlpha: 0.835, SigmaMS: 0.86, SigmaT: 0.12, K1: 87.0},
			TOFw:  Resolution{SigmaAlpha: 0.835, SigmaMS: 0.86, SigmaT: 0.085, K1: 87.0},
			EMCal: Resolution{SigmaAlpha: 0.835, SigmaMS: 0.86, SigmaT: 0.35, K1: 87.0},
		},
		EMCalID: EMCalIDs{
			211:  {A: 0.98, B: 0.3, C: 1.5},
			321:  {A: 0.95, B: 0.6, C: 2.0},
			2212: {A: 0.97, B: 0.4, C: 1.2},
		},
		Spectrum:  Range{Lo: 0, Hi: 10},
		Aggregate: true,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants every consumer of the configuration relies on.
func (c *Config) Validate() error {
	switch {
	case c.Run == "":
		return fmt.Errorf("%w: empty run name", ErrInvalid)
	case len(c.Centrality) == 0:
		return fmt.Errorf("%w: no centrality classes", ErrInvalid)
	case len(c.Pairs) == 0 || len(c.Fields) == 0 || len(c.Aux) == 0 || len(c.PtDeviations) == 0:
		return fmt.Errorf("%w: empty job queue", ErrInvalid)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers=%d", ErrInvalid, c.Workers)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size=%d", ErrInvalid, c.ChunkSize)
	case c.Binning.PtBins < 1 || c.Binning.PtMax <= c.Binning.PtMin:
		return fmt.Errorf("%w: pt binning %+v", ErrInvalid, c.Binning)
	case c.Binning.MassBins < 1 || c.Binning.MassMax <= c.Binning.MassMin:
		return fmt.Errorf("%w: mass binning %+v", ErrInvalid, c.Binning)
	case c.Spectrum.Hi <= c.Spectrum.Lo:
		return fmt.Errorf("%w: spectrum range %+v", ErrInvalid, c.Spectrum)
	case c.Cuts.MatchSigma <= 0 || c.Cuts.M2Sigma <= 0:
		return fmt.Errorf("%w: non-positive sigma window", ErrInvalid)
	}

	pairs := make(map[string]bool, len(c.Pairs))
	for _, key := range c.Pairs {
		if _, err := species.ParsePair(key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if pairs[key] {
			return fmt.Errorf("%w: duplicate pair %q", ErrInvalid, key)
		}
		pairs[key] = true
	}

	seen := make(map[string]bool, len(c.Centrality))
	for _, name := range c.Centrality {
		if seen[name] {
			return fmt.Errorf("%w: duplicate centrality class %q", ErrInvalid, name)
		}
		seen[name] = true
	}

	for _, r := range []Resolution{c.M2.TOFe, c.M2.TOFw, c.M2.EMCal} {
		if r.K1 <= 0 {
			return fmt.Errorf("%w: m2 resolution K1 must be positive", ErrInvalid)
		}
	}
	return nil
}

// NCentrality is the number of centrality classes.
func (c *Config) NCentrality() int { return len(c.Centrality) }

// EmbeddingDir is where the per-species embedding efficiency tables of a
// magnetic field configuration live.
func (c *Config) EmbeddingDir(field string) string {
	return filepath.Join(c.TablesDir, "embedding", field)
}

func (c *Config) SystematicsDir(field string) string {
	return filepath.Join(c.TablesDir, "systematics", field)
}

func (c *Config) SpectrumFile(res species.Species) string {
	return filepath.Join(c.TablesDir, "spectra", res.Short+".txt")
}
