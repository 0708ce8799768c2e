package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/portent-dev/portent/internal/output"
	"github.com/portent-dev/portent/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	app := &cli.App{
		Name:    "portent",
		Usage:   "Corpus-normalized code quality scoring for C/C++ programs",
		Version: version,
		Description: `Portent grades a C/C++ program from the outputs its build and analysis
tools already produced: compiler warnings, sanitizer reports, cppcheck,
clang-tidy, lizard, and KWStyle captures are parsed, reduced to raw
metrics, normalized against a reference corpus of peer programs, and
combined into a single weighted 0-100 score with a full derivation.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"PORTENT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Commands: []*cli.Command{
			scoreCmd(),
			corpusCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for a command invocation: an
// explicit --config path must load, otherwise the standard locations are
// searched and defaults apply.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// outputFormat resolves the output format for a command: an explicit
// --format flag wins over the configured default.
func outputFormat(c *cli.Context, cfg *config.Config) output.Format {
	if c.IsSet("format") {
		return output.ParseFormat(c.String("format"))
	}
	return output.ParseFormat(cfg.Output.Format)
}
