package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/portent-dev/portent/internal/service/scoring"
	"github.com/portent-dev/portent/pkg/config"
	"github.com/portent-dev/portent/pkg/corpus"
	"github.com/portent-dev/portent/pkg/models"
)

// ScoreProgramInput is the input for the score_program tool.
type ScoreProgramInput struct {
	ResultsDir  string `json:"results_dir" jsonschema:"Directory holding captured analyzer outputs (compiler.log, cppcheck.log, ...)."`
	SourceDir   string `json:"source_dir,omitempty" jsonschema:"C/C++ source tree to scan for lines of code and assertions."`
	LinesOfCode int    `json:"lines_of_code,omitempty" jsonschema:"Lines of code, used when no source tree is given."`
	Corpus      string `json:"corpus,omitempty" jsonschema:"Path to the reference corpus artifact. Defaults to the configured corpus."`
}

// FitCorpusInput is the input for the fit_corpus tool.
type FitCorpusInput struct {
	BenchmarkDir string `json:"benchmark_dir" jsonschema:"Directory whose subdirectories each hold one benchmark program's results."`
	Output       string `json:"output,omitempty" jsonschema:"Path to write the fitted corpus artifact (.yaml or .json). Omit to only return it."`
}

// ShowCorpusInput is the input for the show_corpus tool.
type ShowCorpusInput struct {
	Corpus string `json:"corpus,omitempty" jsonschema:"Path to the reference corpus artifact. Defaults to the configured corpus."`
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func handleScoreProgram(ctx context.Context, req *mcp.CallToolRequest, input ScoreProgramInput) (*mcp.CallToolResult, any, error) {
	if input.ResultsDir == "" {
		return toolError("results_dir is required")
	}

	svc := scoring.New()
	result, err := svc.ScoreDir(ctx, input.ResultsDir, scoring.ScoreOptions{
		CorpusPath:  input.Corpus,
		SourceDir:   input.SourceDir,
		LinesOfCode: input.LinesOfCode,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result)
}

func handleFitCorpus(ctx context.Context, req *mcp.CallToolRequest, input FitCorpusInput) (*mcp.CallToolResult, any, error) {
	if input.BenchmarkDir == "" {
		return toolError("benchmark_dir is required")
	}

	svc := scoring.New()
	fitted, err := svc.FitCorpus(ctx, input.BenchmarkDir, scoring.FitOptions{})
	if err != nil {
		return toolError(err.Error())
	}

	if input.Output != "" {
		if err := fitted.Save(input.Output); err != nil {
			return toolError(err.Error())
		}
	}
	return toolResult(fitted)
}

func handleShowCorpus(ctx context.Context, req *mcp.CallToolRequest, input ShowCorpusInput) (*mcp.CallToolResult, any, error) {
	path := input.Corpus
	if path == "" {
		path = config.LoadOrDefault().Corpus.Path
	}

	ref, err := corpus.Load(path)
	if err != nil {
		return toolError(err.Error())
	}

	type row struct {
		Kind   models.MetricKind `json:"kind" toon:"kind"`
		Mean   float64           `json:"mean" toon:"mean"`
		StdDev float64           `json:"stddev" toon:"stddev"`
		N      int               `json:"n" toon:"n"`
	}
	out := struct {
		Version  int   `json:"version" toon:"version"`
		Programs int   `json:"programs" toon:"programs"`
		Metrics  []row `json:"metrics" toon:"metrics"`
	}{Version: ref.Version, Programs: ref.Programs}
	for _, kind := range ref.Kinds() {
		d := ref.Metrics[kind]
		out.Metrics = append(out.Metrics, row{Kind: kind, Mean: d.Mean, StdDev: d.StdDev, N: d.N})
	}
	return toolResult(out)
}
