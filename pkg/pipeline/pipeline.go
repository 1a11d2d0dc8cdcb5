// Package pipeline drives test-case generation: it pairs the measurement
// files of a directory, fetches the reference products every pair needs and
// appends one catalog record per pair.
package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gnsslab/tcgen/pkg/catalog"
	"github.com/gnsslab/tcgen/pkg/gnss"
	"github.com/gnsslab/tcgen/pkg/measurement"
	"github.com/gnsslab/tcgen/pkg/products"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New()

// Progress is invoked once per processed pair with a human-readable outcome
// line and the count of pairs completed so far.
type Progress func(line string, completed int)

// Config parameterizes one generator. Directory and catalog are always
// explicit parameters; the pipeline reads no ambient state.
type Config struct {
	// DataDir is scanned for measurement pairs. Fetched reference products
	// are cached here as well.
	DataDir string `validate:"required"`

	// CatalogPath is the test-case catalog to append to. The file must exist.
	CatalogPath string `validate:"required"`

	// Ephemeris and Orbit deliver the daily reference products.
	Ephemeris products.Source `validate:"required"`
	Orbit     products.Source `validate:"required"`

	// Progress receives the per-pair outcome stream. Optional.
	Progress Progress

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Validate checks the config for completeness.
func (cfg *Config) Validate() error {
	return validate.Struct(cfg)
}

// Summary is the terminal outcome of one run.
type Summary struct {
	Pairs   int // measurement pairs discovered
	Written int // records appended to the catalog
}

// String returns the terminal status line. A run without a single written
// record reports that explicitly instead of staying silent.
func (s Summary) String() string {
	return fmt.Sprintf("%d test cases written", s.Written)
}

// Generator runs the acquisition pipeline. Run may be called from a
// caller-managed goroutine, but a generator is not re-entrant: two concurrent
// runs against the same data directory or catalog file are undefined.
type Generator struct {
	cfg    Config
	log    *zap.Logger
	writer *catalog.Writer
}

// New validates cfg and returns a generator for it.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		cfg:    cfg,
		log:    logger,
		writer: catalog.NewWriter(cfg.CatalogPath),
	}, nil
}

// Run processes every measurement pair in the data directory sequentially.
// A failing pair is reported through the progress stream and skipped; only a
// missing data directory or catalog aborts the run as a whole, before any
// pair is touched.
func (g *Generator) Run() (Summary, error) {
	latest, err := catalog.LatestCaseNumber(g.cfg.CatalogPath)
	if err != nil {
		return Summary{}, err
	}

	pairs, err := measurement.FindPairs(g.cfg.DataDir)
	if err != nil {
		return Summary{}, err
	}
	g.log.Info("run started",
		zap.String("dir", g.cfg.DataDir),
		zap.Int("pairs", len(pairs)),
		zap.Int("latestCase", latest))

	sum := Summary{Pairs: len(pairs)}
	caseNumber := latest + 1
	for i, pair := range pairs {
		line, written := g.process(pair, caseNumber)
		if written {
			caseNumber++
			sum.Written++
		}
		if g.cfg.Progress != nil {
			g.cfg.Progress(line, i+1)
		}
	}

	g.log.Info("run finished", zap.Int("pairs", sum.Pairs), zap.Int("written", sum.Written))
	return sum, nil
}

// process handles one pair and returns its outcome line and whether a record
// was written.
func (g *Generator) process(pair measurement.Pair, caseNumber int) (string, bool) {
	name := filepath.Base(pair.NavPath)

	win, err := measurement.ExtractWindow(name)
	if err != nil {
		return g.failure(name, err), false
	}

	coord, err := gnss.NewCoordinate(win.Primary)
	if err != nil {
		return g.failure(name, err), false
	}

	ephPath, err := g.cfg.Ephemeris.Fetch(coord, g.cfg.DataDir)
	if err != nil {
		return g.failure(name, err), false
	}

	orbitPath, err := g.cfg.Orbit.Fetch(coord, g.cfg.DataDir)
	if err != nil {
		return g.failure(name, err), false
	}

	written, err := g.writer.Append(catalog.Record{
		CaseNumber: caseNumber,
		Window:     win,
		NavPath:    pair.NavPath,
		ObsPath:    pair.ObsPath,
		EphPath:    ephPath,
		OrbitPath:  orbitPath,
	})
	if err != nil {
		return g.failure(name, err), false
	}
	if !written {
		g.log.Info("test case skipped, already in catalog", zap.String("pair", name))
		return fmt.Sprintf("Test case for %s generated unsuccessfully: already in catalog", name), false
	}

	g.log.Info("test case written", zap.String("pair", name), zap.Int("case", caseNumber))
	return fmt.Sprintf("Test case %d written for %s", caseNumber, name), true
}

func (g *Generator) failure(name string, err error) string {
	g.log.Warn("pair failed", zap.String("pair", name), zap.Error(err))
	return fmt.Sprintf("Test case for %s failed: %v", name, err)
}
