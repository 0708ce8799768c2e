package scoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portent-dev/portent/pkg/config"
	"github.com/portent-dev/portent/pkg/corpus"
	"github.com/portent-dev/portent/pkg/models"
)

const testCorpusYAML = `version: 1
programs: 5
metrics:
  compiler_warnings_per_kloc:
    mean: 4.0
    stddev: 2.0
    n: 5
  style_warnings_per_kloc:
    mean: 2.0
    stddev: 1.0
    n: 5
  assertion_density:
    mean: 0.005
    stddev: 0.002
    n: 5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestService builds a service whose config points at a corpus written
// into the test's temp space.
func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	corpusPath := writeFile(t, dir, "corpus.yaml", testCorpusYAML)

	cfg := config.DefaultConfig()
	cfg.Corpus.Path = corpusPath
	return New(WithConfig(cfg)), dir
}

func TestScoreDir(t *testing.T) {
	svc, dir := newTestService(t)

	results := filepath.Join(dir, "demo")
	writeFile(t, results, "compiler.log",
		"main.c:10:5: warning: unused variable 'x' [-Wunused-variable]\n")
	writeFile(t, results, "kwstyle.log",
		"main.c\nError #1 (3) Spaces at the end of line\n")

	var ticks int
	result, err := svc.ScoreDir(context.Background(), results, ScoreOptions{
		LinesOfCode: 1000,
		OnProgress:  func() { ticks++ },
	})
	require.NoError(t, err)

	assert.Equal(t, "demo", result.Program, "program name comes from the results directory")
	assert.Equal(t, 1000, result.LinesOfCode)
	assert.Equal(t, 2, ticks, "one progress tick per capture file")
	assert.Greater(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 100.0)

	scored := map[models.Category]bool{}
	for _, cs := range result.Categories {
		if !cs.Unavailable {
			scored[cs.Category] = true
		}
	}
	assert.True(t, scored[models.CategoryCompilerWarning])
	assert.True(t, scored[models.CategoryStyleViolation])
}

func TestScoreDirWithSourceTree(t *testing.T) {
	svc, dir := newTestService(t)

	results := filepath.Join(dir, "scanned")
	writeFile(t, results, "compiler.log", "")
	writeFile(t, results, "src/main.c", `#include <assert.h>

int main(void) {
	assert(1);
	return 0;
}
`)

	result, err := svc.ScoreDir(context.Background(), results, ScoreOptions{
		SourceDir: filepath.Join(results, "src"),
	})
	require.NoError(t, err)

	// Lines of code come from the scan, not the (absent) override.
	assert.Equal(t, 5, result.LinesOfCode)

	for _, cs := range result.Categories {
		if cs.Category == models.CategoryAssertionUsage {
			assert.False(t, cs.Unavailable,
				"assertion usage should be scorable when a source tree is scanned")
		}
	}
}

func TestScoreDirExcludesVendoredSources(t *testing.T) {
	svc, dir := newTestService(t)

	results := filepath.Join(dir, "vendored")
	writeFile(t, results, "compiler.log", "")
	writeFile(t, results, "src/main.c", `#include <assert.h>

int main(void) {
	assert(1);
	return 0;
}
`)
	// Vendored code would double the line count and assertion density if the
	// configured exclude list were ignored.
	writeFile(t, results, "src/vendor/lib.c", `#include <assert.h>

int helper(void) {
	assert(0);
	return 1;
}
`)

	result, err := svc.ScoreDir(context.Background(), results, ScoreOptions{
		SourceDir: filepath.Join(results, "src"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.LinesOfCode,
		"lines of code must come from main.c only, with src/vendor excluded")
}

func TestScoreDirNoCaptures(t *testing.T) {
	svc, dir := newTestService(t)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	_, err := svc.ScoreDir(context.Background(), empty, ScoreOptions{LinesOfCode: 100})
	require.ErrorContains(t, err, "no recognized capture files")
}

func TestScoreDirMissingCorpus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Corpus.Path = filepath.Join(t.TempDir(), "absent.yaml")
	svc := New(WithConfig(cfg))

	_, err := svc.ScoreDir(context.Background(), t.TempDir(), ScoreOptions{LinesOfCode: 100})
	require.Error(t, err)
}

func TestScoreDirCorpusOverride(t *testing.T) {
	svc, dir := newTestService(t)

	override := writeFile(t, dir, "alt.yaml", `version: 1
programs: 2
metrics:
  compiler_warnings_per_kloc:
    mean: 10.0
    stddev: 5.0
    n: 2
`)

	results := filepath.Join(dir, "alt-demo")
	writeFile(t, results, "compiler.log", "")

	result, err := svc.ScoreDir(context.Background(), results, ScoreOptions{
		CorpusPath:  override,
		LinesOfCode: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CorpusPrograms, "override artifact should be the one loaded")
}

func TestFitCorpus(t *testing.T) {
	svc, _ := newTestService(t)
	bench := t.TempDir()

	// Two programs with loc files, one with a source tree.
	writeFile(t, filepath.Join(bench, "prog-a"), "compiler.log",
		"a.c:1:1: warning: unused variable 'x' [-Wunused-variable]\n")
	writeFile(t, filepath.Join(bench, "prog-a"), "loc", "1000\n")

	writeFile(t, filepath.Join(bench, "prog-b"), "compiler.log", "")
	writeFile(t, filepath.Join(bench, "prog-b"), "loc", "2000\n")

	writeFile(t, filepath.Join(bench, "prog-c"), "compiler.log", "")
	writeFile(t, filepath.Join(bench, "prog-c"), "src/main.c", "int main(void) { return 0; }\n")

	var programs int
	fitted, err := svc.FitCorpus(context.Background(), bench, FitOptions{
		OnProgram: func() { programs++ },
	})
	require.NoError(t, err)

	assert.Equal(t, 3, fitted.Programs)
	assert.Equal(t, 3, programs, "one progress callback per benchmark program")

	d, ok := fitted.Distribution(models.MetricCompilerWarningsPerKLOC)
	require.True(t, ok, "compiler distribution missing from fitted corpus")
	assert.Equal(t, 3, d.N)

	// prog-c contributes assertion density via its source tree.
	_, ok = fitted.Distribution(models.MetricAssertionDensity)
	assert.True(t, ok, "assertion density should be fitted from the scanned program")
}

func TestFitCorpusRoundTripsThroughLoad(t *testing.T) {
	svc, dir := newTestService(t)
	bench := t.TempDir()
	writeFile(t, filepath.Join(bench, "p1"), "compiler.log", "")
	writeFile(t, filepath.Join(bench, "p1"), "loc", "500")
	writeFile(t, filepath.Join(bench, "p2"), "compiler.log",
		"a.c:1:1: warning: unused variable 'x' [-Wunused-variable]\n")
	writeFile(t, filepath.Join(bench, "p2"), "loc", "500")

	fitted, err := svc.FitCorpus(context.Background(), bench, FitOptions{})
	require.NoError(t, err)

	path := filepath.Join(dir, "fitted.yaml")
	require.NoError(t, fitted.Save(path))

	_, err = corpus.Load(path)
	assert.NoError(t, err, "fitted corpus should validate on reload")
}

func TestFitCorpusProgramWithoutSize(t *testing.T) {
	svc, _ := newTestService(t)
	bench := t.TempDir()
	writeFile(t, filepath.Join(bench, "sizeless"), "compiler.log", "")

	_, err := svc.FitCorpus(context.Background(), bench, FitOptions{})
	require.ErrorContains(t, err, "sizeless", "failure should name the program")
}

func TestFitCorpusEmptyBenchmark(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.FitCorpus(context.Background(), t.TempDir(), FitOptions{})
	require.ErrorContains(t, err, "no program directories")
}

func TestReadLOCFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loc", "  1234 \n")
	loc, err := readLOCFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, loc)

	bad := writeFile(t, dir, "locbad", "many\n")
	_, err = readLOCFile(bad)
	assert.Error(t, err, "non-numeric loc file should be rejected")
}
