// Package adapter normalizes captured analyzer output into findings.
//
// Each adapter parses one tool's raw output blob. Adapters never invoke
// external processes; capturing tool output is the build pipeline's job.
// Unknown lines and fields are skipped rather than treated as errors, so
// adapters stay tolerant of tool-version drift.
package adapter

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/portent-dev/portent/pkg/models"
	"github.com/sourcegraph/conc/pool"
)

// Adapter extracts findings from one analyzer's captured output.
type Adapter interface {
	// Tool returns the originating tool identity (e.g. "cppcheck").
	Tool() string
	// Category returns the analysis category this adapter feeds.
	Category() models.Category
	// Metrics returns the metric kinds derived from this adapter's findings.
	// A failed parse marks exactly these kinds unavailable.
	Metrics() []models.MetricKind
	// Parse converts the raw output blob into findings. An empty blob or a
	// blob containing no recognizable issues yields an empty slice. Parse
	// returns a *ParseError when the blob does not look like this tool's
	// output at all.
	Parse(raw []byte) ([]models.Finding, error)
}

// ParseError reports that a tool's captured output did not match its
// expected grammar. The metrics it feeds are marked unavailable rather than
// aborting the scoring run.
type ParseError struct {
	Tool   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable output: %s", e.Tool, e.Reason)
}

// ToolOutput pairs an adapter with the raw blob captured for it.
type ToolOutput struct {
	Adapter Adapter
	Raw     []byte
}

// Failure records an adapter that could not parse its output.
type Failure struct {
	Tool     string          `json:"tool"`
	Category models.Category `json:"category"`
	Reason   string          `json:"reason"`
}

// measurementObserver is implemented by adapters whose metric kinds are
// derived from explicit measurement findings rather than issue counts. After
// a successful parse, RunAll asks it which kinds the findings actually
// measured; the adapter's remaining kinds are marked unavailable instead of
// defaulting to zero.
type measurementObserver interface {
	ObservedMetrics(findings []models.Finding) []models.MetricKind
}

// Extraction is the merged result of running a set of adapters.
type Extraction struct {
	// Findings holds the parsed findings grouped by category.
	Findings map[models.Category][]models.Finding
	// Available marks the metric kinds whose adapters parsed successfully
	// and, for measurement-derived kinds, actually observed a measurement.
	// Kinds absent from the map had no adapter in the run at all.
	Available map[models.MetricKind]bool
	// Failures lists adapters whose output could not be parsed.
	Failures []Failure
}

// RunAll parses every tool output in parallel and merges the results.
// Adapters that fail are reported as failures instead of aborting the run;
// results are merged only after every adapter has completed.
func RunAll(outputs []ToolOutput) *Extraction {
	type parsed struct {
		findings []models.Finding
		failure  *Failure
	}

	results := make([]parsed, len(outputs))
	var mu sync.Mutex

	p := pool.New()
	for i, out := range outputs {
		p.Go(func() {
			findings, err := out.Adapter.Parse(out.Raw)
			r := parsed{findings: findings}
			if err != nil {
				r.failure = &Failure{
					Tool:     out.Adapter.Tool(),
					Category: out.Adapter.Category(),
					Reason:   err.Error(),
				}
			}
			mu.Lock()
			results[i] = r
			mu.Unlock()
		})
	}
	p.Wait()

	ex := &Extraction{
		Findings:  make(map[models.Category][]models.Finding),
		Available: make(map[models.MetricKind]bool),
	}
	for i, r := range results {
		a := outputs[i].Adapter
		ok := r.failure == nil

		var observed map[models.MetricKind]bool
		if obs, measured := a.(measurementObserver); ok && measured {
			observed = make(map[models.MetricKind]bool)
			for _, kind := range obs.ObservedMetrics(r.findings) {
				observed[kind] = true
			}
		}
		for _, kind := range a.Metrics() {
			avail := ok
			if observed != nil {
				avail = observed[kind]
			}
			ex.Available[kind] = ex.Available[kind] || avail
		}
		if !ok {
			ex.Failures = append(ex.Failures, *r.failure)
			continue
		}
		ex.Findings[a.Category()] = append(ex.Findings[a.Category()], r.findings...)
	}
	return ex
}

// looksBinary reports whether a blob cannot be analyzer text output.
func looksBinary(raw []byte) bool {
	return bytes.IndexByte(raw, 0) >= 0
}
