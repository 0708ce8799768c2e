package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/portent-dev/portent/internal/output"
	"github.com/portent-dev/portent/internal/progress"
	"github.com/portent-dev/portent/internal/service/scoring"
	"github.com/portent-dev/portent/pkg/corpus"
)

func corpusCmd() *cli.Command {
	return &cli.Command{
		Name:  "corpus",
		Usage: "Fit and inspect the reference corpus",
		Subcommands: []*cli.Command{
			corpusFitCmd(),
			corpusShowCmd(),
		},
	}
}

func corpusFitCmd() *cli.Command {
	return &cli.Command{
		Name:      "fit",
		Usage:     "Fit reference distributions from a benchmark directory",
		ArgsUsage: "<benchmark-dir>",
		Description: `Every subdirectory of the benchmark directory is treated as one
program's results directory (see 'portent score'), with either a src/
source tree or a loc file holding the line count. Raw metrics are
aggregated per program and per-kind distributions fitted from them.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Value:   "corpus.yaml",
				Usage:   "Path for the fitted corpus artifact (.yaml or .json)",
			},
		},
		Action: runCorpusFitCmd,
	}
}

func runCorpusFitCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one benchmark directory, got %d arguments", c.Args().Len())
	}
	benchmarkDir := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := scoring.New(scoring.WithConfig(cfg))

	bar := progress.NewTracker("Fitting corpus...", benchmarkProgramCount(benchmarkDir))
	fitted, err := svc.FitCorpus(c.Context, benchmarkDir, scoring.FitOptions{
		OnProgram: bar.Tick,
	})
	if err != nil {
		bar.FinishError(err)
		return err
	}
	bar.FinishSuccess()

	path := c.String("write")
	if err := fitted.Save(path); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(
		outputFormat(c, cfg),
		c.String("output"),
		!c.Bool("no-color") && cfg.Output.Color,
	)
	if err != nil {
		return err
	}
	defer formatter.Close()

	formatter.Success("Fitted %d metric kinds from %d programs, written to %s",
		len(fitted.Metrics), fitted.Programs, path)
	return formatter.Output(corpusTable(fitted))
}

// benchmarkProgramCount sizes the fit progress bar by counting the program
// subdirectories a fit run will visit. An unreadable directory counts as
// zero; FitCorpus reports the real error.
func benchmarkProgramCount(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var n int
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}

func corpusShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the reference corpus distribution table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "corpus",
				Usage: "Path to the reference corpus artifact",
			},
		},
		Action: runCorpusShowCmd,
	}
}

func runCorpusShowCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := c.String("corpus")
	if path == "" {
		path = cfg.Corpus.Path
	}
	ref, err := corpus.Load(path)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(
		outputFormat(c, cfg),
		c.String("output"),
		!c.Bool("no-color") && cfg.Output.Color,
	)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(corpusTable(ref))
}

func corpusTable(ref *corpus.Corpus) *output.Table {
	var rows [][]string
	for _, kind := range ref.Kinds() {
		d := ref.Metrics[kind]
		note := ""
		if d.Degenerate() {
			note = "degenerate"
		}
		rows = append(rows, []string{
			string(kind),
			fmt.Sprintf("%.4g", d.Mean),
			fmt.Sprintf("%.4g", d.StdDev),
			fmt.Sprintf("%d", d.N),
			note,
		})
	}

	return output.NewTable(
		fmt.Sprintf("Reference Corpus (v%d, %d programs)", ref.Version, ref.Programs),
		[]string{"Metric", "Mean", "StdDev", "N", "Note"},
		rows,
		nil,
		ref,
	)
}
