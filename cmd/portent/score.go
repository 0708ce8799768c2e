package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/portent-dev/portent/internal/output"
	"github.com/portent-dev/portent/internal/progress"
	"github.com/portent-dev/portent/internal/service/scoring"
	"github.com/portent-dev/portent/pkg/analyzer/score"
)

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score a program from its captured analyzer outputs",
		ArgsUsage: "<results-dir>",
		Description: `Reads captured tool outputs from well-known filenames in the results
directory (compiler.log, sanitizer.log, cppcheck.log, clang-tidy.log,
lizard.log, kwstyle.log), normalizes the derived metrics against the
reference corpus, and prints the weighted score with its derivation.

Lines of code come from scanning --src, or from --loc when no source
tree is available. Absent capture files leave their categories
unavailable; their weight is redistributed over the rest.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "src",
				Usage: "C/C++ source tree to scan for lines of code and assertions",
			},
			&cli.IntFlag{
				Name:  "loc",
				Usage: "Lines of code, used when --src is not given",
			},
			&cli.StringFlag{
				Name:  "corpus",
				Usage: "Path to the reference corpus artifact",
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "Exit non-zero when the final score falls below this threshold",
			},
		},
		Action: runScoreCmd,
	}
}

func runScoreCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one results directory, got %d arguments", c.Args().Len())
	}
	resultsDir := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	minScore := cfg.Thresholds.MinScore
	if c.IsSet("min-score") {
		minScore = c.Float64("min-score")
	}

	svc := scoring.New(scoring.WithConfig(cfg))

	spinner := progress.NewSpinner("Scoring...")
	result, err := svc.ScoreDir(c.Context, resultsDir, scoring.ScoreOptions{
		CorpusPath:  c.String("corpus"),
		SourceDir:   c.String("src"),
		LinesOfCode: c.Int("loc"),
		OnProgress:  spinner.Tick,
	})
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()

	formatter, err := output.NewFormatter(
		outputFormat(c, cfg),
		c.String("output"),
		!c.Bool("no-color") && cfg.Output.Color,
	)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(scoreReport(result, formatter.Colored())); err != nil {
		return err
	}

	if minScore > 0 && !result.Passed(minScore) {
		return fmt.Errorf("score %.1f is below the minimum %.1f", result.Score, minScore)
	}
	return nil
}

// scoreReport renders a scoring result as a report: a summary line, the
// category breakdown, the per-metric derivation, and any tool failures.
func scoreReport(result *score.Result, colored bool) *output.Report {
	finalStr := fmt.Sprintf("%.1f", result.Score)
	if colored {
		finalStr = output.ScoreColor(result.Score, finalStr)
	}

	report := &output.Report{
		Title: fmt.Sprintf("Quality Score: %s", result.Program),
		Data:  result,
	}

	report.Sections = append(report.Sections, &output.Section{
		Content: fmt.Sprintf("Final score %s (corpus of %d programs, %d lines of code)",
			finalStr, result.CorpusPrograms, result.LinesOfCode),
	})

	var catRows [][]string
	var metricRows [][]string
	for _, cat := range result.Categories {
		if cat.Unavailable {
			catRows = append(catRows, []string{
				string(cat.Category), "-", fmt.Sprintf("%.2f", cat.Weight), "-", cat.Reason,
			})
		} else {
			scoreStr := fmt.Sprintf("%.1f", cat.Score)
			if colored {
				scoreStr = output.ScoreColor(cat.Score, scoreStr)
			}
			catRows = append(catRows, []string{
				string(cat.Category),
				scoreStr,
				fmt.Sprintf("%.2f", cat.Weight),
				fmt.Sprintf("%.2f", cat.EffectiveWeight),
				"",
			})
		}

		for _, m := range cat.Metrics {
			if m.Unavailable {
				metricRows = append(metricRows, []string{string(m.Kind), "-", "-", "-", m.Reason})
				continue
			}
			ref := fmt.Sprintf("%.3g ± %.3g", m.RefMean, m.RefStdDev)
			if m.Degenerate {
				ref += " (degenerate)"
			}
			metricRows = append(metricRows, []string{
				string(m.Kind),
				fmt.Sprintf("%.4g", m.Raw),
				ref,
				fmt.Sprintf("%.1f", m.Score),
				"",
			})
		}
	}

	report.Sections = append(report.Sections,
		output.NewTable("Categories",
			[]string{"Category", "Score", "Weight", "Effective", "Note"},
			catRows, nil, nil),
		output.NewTable("Metrics",
			[]string{"Metric", "Raw", "Reference", "Score", "Note"},
			metricRows, nil, nil),
	)

	if len(result.Failures) > 0 {
		var content string
		for _, f := range result.Failures {
			content += fmt.Sprintf("%s (%s): %s\n", f.Tool, f.Category, f.Reason)
		}
		if colored {
			content = color.YellowString(content)
		}
		report.Sections = append(report.Sections, &output.Section{
			Title:   "Tool Failures",
			Content: content,
		})
	}

	return report
}
