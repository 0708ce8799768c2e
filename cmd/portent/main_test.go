package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/portent-dev/portent/internal/output"
	"github.com/portent-dev/portent/pkg/adapter"
	"github.com/portent-dev/portent/pkg/analyzer/normalize"
	"github.com/portent-dev/portent/pkg/analyzer/score"
	"github.com/portent-dev/portent/pkg/config"
	"github.com/portent-dev/portent/pkg/models"
)

// TestCommandWiring verifies the top-level command tree.
func TestCommandWiring(t *testing.T) {
	commands := map[string]*cli.Command{
		"score":  scoreCmd(),
		"corpus": corpusCmd(),
		"mcp":    mcpCmd(),
	}

	for name, cmd := range commands {
		if cmd.Name != name {
			t.Errorf("command name = %q, want %q", cmd.Name, name)
		}
		if cmd.Usage == "" {
			t.Errorf("command %s has no usage text", name)
		}
	}

	var subs []string
	for _, sub := range commands["corpus"].Subcommands {
		subs = append(subs, sub.Name)
	}
	if len(subs) != 2 || subs[0] != "fit" || subs[1] != "show" {
		t.Errorf("corpus subcommands = %v, want [fit show]", subs)
	}
}

func TestScoreCmdRequiresResultsDir(t *testing.T) {
	app := &cli.App{Commands: []*cli.Command{scoreCmd()}}
	err := app.Run([]string{"portent", "score"})
	if err == nil || !strings.Contains(err.Error(), "exactly one results directory") {
		t.Errorf("score without args = %v, want argument error", err)
	}
}

func TestCorpusFitRequiresBenchmarkDir(t *testing.T) {
	app := &cli.App{Commands: []*cli.Command{corpusCmd()}}
	err := app.Run([]string{"portent", "corpus", "fit"})
	if err == nil || !strings.Contains(err.Error(), "exactly one benchmark directory") {
		t.Errorf("corpus fit without args = %v, want argument error", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit_path_must_load", func(t *testing.T) {
		var err error
		app := &cli.App{
			Flags: []cli.Flag{&cli.StringFlag{Name: "config"}},
			Action: func(c *cli.Context) error {
				_, err = loadConfig(c)
				return nil
			},
		}
		_ = app.Run([]string{"portent", "--config", filepath.Join(t.TempDir(), "absent.toml")})
		if err == nil {
			t.Error("explicit --config pointing nowhere should fail")
		}
	})

	t.Run("explicit_path_loads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "portent.toml")
		if writeErr := os.WriteFile(path, []byte("[thresholds]\nmin_score = 55.0\n"), 0o644); writeErr != nil {
			t.Fatal(writeErr)
		}

		var cfg *config.Config
		var err error
		app := &cli.App{
			Flags: []cli.Flag{&cli.StringFlag{Name: "config"}},
			Action: func(c *cli.Context) error {
				cfg, err = loadConfig(c)
				return nil
			},
		}
		_ = app.Run([]string{"portent", "--config", path})
		if err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if cfg.Thresholds.MinScore != 55 {
			t.Errorf("MinScore = %v, want 55", cfg.Thresholds.MinScore)
		}
	})
}

func TestOutputFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Format = "markdown"

	run := func(args ...string) output.Format {
		var got output.Format
		app := &cli.App{
			Flags: []cli.Flag{&cli.StringFlag{Name: "format", Value: "text"}},
			Action: func(c *cli.Context) error {
				got = outputFormat(c, cfg)
				return nil
			},
		}
		if err := app.Run(append([]string{"portent"}, args...)); err != nil {
			t.Fatal(err)
		}
		return got
	}

	if got := run(); got != output.FormatMarkdown {
		t.Errorf("unset flag resolved to %s, want the configured markdown", got)
	}
	if got := run("--format", "json"); got != output.FormatJSON {
		t.Errorf("explicit flag resolved to %s, want json", got)
	}
}

func TestBenchmarkProgramCount(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"prog-a", "prog-b"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := benchmarkProgramCount(dir); got != 2 {
		t.Errorf("benchmarkProgramCount() = %d, want 2 (files do not count)", got)
	}
	if got := benchmarkProgramCount(filepath.Join(dir, "absent")); got != 0 {
		t.Errorf("benchmarkProgramCount(absent) = %d, want 0", got)
	}
}

func sampleResult() *score.Result {
	return &score.Result{
		Program:     "demo",
		Score:       63.4,
		LinesOfCode: 1200,
		Categories: []score.CategoryScore{
			{
				Category:        models.CategoryCompilerWarning,
				Score:           73.1,
				Weight:          0.20,
				EffectiveWeight: 0.67,
				Metrics: []score.MetricScore{
					{
						SubScore: normalize.SubScore{
							Kind:      models.MetricCompilerWarningsPerKLOC,
							Raw:       2,
							Score:     73.1,
							RefMean:   4,
							RefStdDev: 2,
							RefN:      5,
						},
						Weight:          1,
						EffectiveWeight: 1,
					},
				},
			},
			{
				Category:    models.CategorySanitizerError,
				Weight:      0.20,
				Unavailable: true,
				Reason:      "no tool output provided",
				Metrics: []score.MetricScore{
					{
						SubScore:    normalize.SubScore{Kind: models.MetricSanitizerErrorsPerKLOC},
						Weight:      1,
						Unavailable: true,
						Reason:      "no tool output provided",
					},
				},
			},
		},
		Failures: []adapter.Failure{
			{Tool: "lizard", Category: models.CategoryComplexity, Reason: "missing summary section"},
		},
		CorpusPrograms: 5,
		ScoredAt:       time.Now().UTC(),
	}
}

func TestScoreReport(t *testing.T) {
	report := scoreReport(sampleResult(), false)

	if report.Title != "Quality Score: demo" {
		t.Errorf("title = %q", report.Title)
	}
	// Summary, categories table, metrics table, failures section.
	if len(report.Sections) != 4 {
		t.Fatalf("sections = %d, want 4", len(report.Sections))
	}

	var sb strings.Builder
	if err := report.RenderMarkdown(&sb); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	rendered := sb.String()
	for _, want := range []string{
		"63.4",
		"compiler_warning",
		"73.1",
		"no tool output provided",
		"4 ± 2",
		"lizard",
		"missing summary section",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestScoreReportDegenerateNote(t *testing.T) {
	result := sampleResult()
	result.Categories[0].Metrics[0].Degenerate = true
	result.Failures = nil

	var sb strings.Builder
	if err := scoreReport(result, false).RenderMarkdown(&sb); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	rendered := sb.String()
	if !strings.Contains(rendered, "(degenerate)") {
		t.Error("degenerate sub-scores should be flagged in the reference column")
	}
	if strings.Contains(rendered, "Tool Failures") {
		t.Error("failure section should be omitted when nothing failed")
	}
}
