// Package scoring orchestrates full scoring and corpus-fitting runs over
// captured analyzer output directories. It is the shared entry point for the
// CLI commands and the MCP tools.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/portent-dev/portent/internal/sourcescan"
	"github.com/portent-dev/portent/pkg/adapter"
	"github.com/portent-dev/portent/pkg/analyzer/aggregate"
	"github.com/portent-dev/portent/pkg/analyzer/score"
	"github.com/portent-dev/portent/pkg/config"
	"github.com/portent-dev/portent/pkg/corpus"
	"github.com/portent-dev/portent/pkg/models"
)

// resultFile maps a well-known capture filename to its adapter constructor.
type resultFile struct {
	name    string
	adapter func() adapter.Adapter
}

// resultFiles lists the capture files recognized in a results directory.
// Absent files simply leave their metrics unavailable.
var resultFiles = []resultFile{
	{"compiler.log", func() adapter.Adapter { return adapter.NewCompiler() }},
	{"sanitizer.log", func() adapter.Adapter { return adapter.NewSanitizer() }},
	{"cppcheck.log", func() adapter.Adapter { return adapter.NewCppcheck() }},
	{"clang-tidy.log", func() adapter.Adapter { return adapter.NewClangTidy() }},
	{"lizard.log", func() adapter.Adapter { return adapter.NewLizard() }},
	{"kwstyle.log", func() adapter.Adapter { return adapter.NewKWStyle() }},
}

// Service runs scoring pipelines with a fixed configuration.
type Service struct {
	cfg *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New creates a scoring service.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.LoadOrDefault()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreOptions configures a single scoring run.
type ScoreOptions struct {
	// CorpusPath overrides the configured corpus artifact path.
	CorpusPath string
	// SourceDir, when set, is scanned for lines of code and assertions.
	SourceDir string
	// LinesOfCode is used instead of scanning when SourceDir is empty.
	LinesOfCode int
	// OnProgress is called once per parsed capture file.
	OnProgress func()
}

// ScoreDir scores one program from its results directory: captured tool
// outputs are read from well-known filenames, the source tree (when given)
// contributes lines of code and assertion findings, and the program is
// scored against the reference corpus.
func (s *Service) ScoreDir(ctx context.Context, resultsDir string, opts ScoreOptions) (*score.Result, error) {
	corpusPath := opts.CorpusPath
	if corpusPath == "" {
		corpusPath = s.cfg.Corpus.Path
	}
	ref, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, err
	}

	program, err := s.collectProgram(ctx, resultsDir, opts)
	if err != nil {
		return nil, err
	}

	engine, err := score.New(ref, score.WithWeights(s.cfg.Weights))
	if err != nil {
		return nil, err
	}
	return engine.Score(ctx, program)
}

// collectProgram gathers a Program's tool outputs, lines of code, and
// assertion findings from disk.
func (s *Service) collectProgram(ctx context.Context, resultsDir string, opts ScoreOptions) (score.Program, error) {
	p := score.Program{
		Name:        filepath.Base(filepath.Clean(resultsDir)),
		LinesOfCode: opts.LinesOfCode,
	}

	info, err := os.Stat(resultsDir)
	if err != nil {
		return p, fmt.Errorf("results directory: %w", err)
	}
	if !info.IsDir() {
		return p, fmt.Errorf("results path %s is not a directory", resultsDir)
	}

	for _, rf := range resultFiles {
		raw, err := os.ReadFile(filepath.Join(resultsDir, rf.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return p, fmt.Errorf("reading %s: %w", rf.name, err)
		}
		p.Outputs = append(p.Outputs, adapter.ToolOutput{Adapter: rf.adapter(), Raw: raw})
		if opts.OnProgress != nil {
			opts.OnProgress()
		}
	}

	if opts.SourceDir != "" {
		scan, err := s.scanSource(ctx, opts.SourceDir)
		if err != nil {
			return p, err
		}
		raw, err := json.Marshal(scan)
		if err != nil {
			return p, fmt.Errorf("encoding scan result: %w", err)
		}
		p.Outputs = append(p.Outputs, adapter.ToolOutput{Adapter: adapter.NewAssertions(), Raw: raw})
		p.LinesOfCode = scan.LinesOfCode
	}

	if len(p.Outputs) == 0 {
		return p, fmt.Errorf("no recognized capture files in %s", resultsDir)
	}
	return p, nil
}

// scanSource runs the tree-sitter scan over a source tree.
func (s *Service) scanSource(ctx context.Context, dir string) (*sourcescan.Result, error) {
	files, err := sourcescan.FindSourceFiles(dir, s.cfg.Scan.ExcludeDirs...)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no C/C++ source files under %s", dir)
	}

	scanner := sourcescan.New(sourcescan.WithMaxFileSize(s.cfg.Scan.MaxFileSize))
	return scanner.ScanFiles(ctx, files)
}

// FitOptions configures corpus fitting.
type FitOptions struct {
	// OnProgram is called after each benchmark program is aggregated.
	OnProgram func()
}

// FitCorpus fits reference distributions from a benchmark directory. Every
// subdirectory is treated as one program's results directory, optionally
// with a src/ subtree for scanning. Programs are aggregated in parallel;
// programs that yield no metrics at all are skipped.
func (s *Service) FitCorpus(ctx context.Context, benchmarkDir string, opts FitOptions) (*corpus.Corpus, error) {
	entries, err := os.ReadDir(benchmarkDir)
	if err != nil {
		return nil, fmt.Errorf("reading benchmark directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(benchmarkDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no program directories under %s", benchmarkDir)
	}

	var mu sync.Mutex
	samples := make(map[models.MetricKind][]float64)
	perProgram := make([]models.RawMetrics, len(dirs))

	p := pool.New().WithErrors().WithContext(ctx)
	for i, dir := range dirs {
		p.Go(func(ctx context.Context) error {
			raw, err := s.aggregateProgram(ctx, dir)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(dir), err)
			}
			mu.Lock()
			perProgram[i] = raw
			mu.Unlock()
			if opts.OnProgram != nil {
				opts.OnProgram()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	// Collect samples in directory order so fitted parameters are stable.
	var fitted int
	for _, raw := range perProgram {
		if len(raw) == 0 {
			continue
		}
		fitted++
		for kind, value := range raw {
			samples[kind] = append(samples[kind], value)
		}
	}
	if fitted == 0 {
		return nil, fmt.Errorf("no benchmark program produced metrics under %s", benchmarkDir)
	}
	return corpus.Fit(samples, fitted), nil
}

// aggregateProgram reduces one benchmark program to raw metrics. A src/
// subtree, when present, provides lines of code and assertion counts;
// otherwise a loc file holding the count is required.
func (s *Service) aggregateProgram(ctx context.Context, dir string) (models.RawMetrics, error) {
	opts := ScoreOptions{}
	if info, err := os.Stat(filepath.Join(dir, "src")); err == nil && info.IsDir() {
		opts.SourceDir = filepath.Join(dir, "src")
	} else {
		loc, err := readLOCFile(filepath.Join(dir, "loc"))
		if err != nil {
			return nil, err
		}
		opts.LinesOfCode = loc
	}

	program, err := s.collectProgram(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	ex := adapter.RunAll(program.Outputs)
	return aggregate.Aggregate(ex, program.LinesOfCode)
}

func readLOCFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("program has no src/ tree and no loc file: %w", err)
	}
	var loc int
	if _, err := fmt.Sscanf(string(raw), "%d", &loc); err != nil {
		return 0, fmt.Errorf("parsing loc file %s: %w", path, err)
	}
	return loc, nil
}
