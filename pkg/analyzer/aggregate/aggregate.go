// Package aggregate reduces finding sets to raw scalar metrics.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/portent-dev/portent/pkg/adapter"
	"github.com/portent-dev/portent/pkg/models"
)

// ErrInvalidProgramSize is returned when the analyzed program has no
// measurable lines of code. Per-kLOC rates are meaningless then, so the run
// aborts instead of reporting a zero score.
var ErrInvalidProgramSize = errors.New("program has no measurable lines of code")

// Aggregate reduces an extraction to raw metrics, one value per available
// metric kind. Count categories become severity-weighted rates per 1000
// lines of code; complexity measurements are reduced to mean and max;
// assertion usage becomes a density. The reduction is deterministic for a
// fixed finding sequence.
func Aggregate(ex *adapter.Extraction, linesOfCode int) (models.RawMetrics, error) {
	if linesOfCode <= 0 {
		return nil, fmt.Errorf("%w: got %d lines", ErrInvalidProgramSize, linesOfCode)
	}
	kloc := float64(linesOfCode) / 1000

	metrics := make(models.RawMetrics)
	for kind, ok := range ex.Available {
		if !ok {
			continue
		}
		value, err := reduce(kind, ex.Findings, kloc, linesOfCode)
		if err != nil {
			return nil, err
		}
		metrics[kind] = value
	}
	return metrics, nil
}

func reduce(kind models.MetricKind, findings map[models.Category][]models.Finding, kloc float64, loc int) (float64, error) {
	switch kind {
	case models.MetricCompilerWarningsPerKLOC:
		return weightedCount(findings[models.CategoryCompilerWarning], "") / kloc, nil
	case models.MetricSanitizerErrorsPerKLOC:
		return weightedCount(findings[models.CategorySanitizerError], "") / kloc, nil
	case models.MetricCppcheckWarningsPerKLOC:
		return weightedCount(findings[models.CategoryStaticAnalysis], "cppcheck") / kloc, nil
	case models.MetricClangTidyWarningsPerKLOC:
		return weightedCount(findings[models.CategoryStaticAnalysis], "clang-tidy") / kloc, nil
	case models.MetricStyleWarningsPerKLOC:
		return weightedCount(findings[models.CategoryStyleViolation], "") / kloc, nil
	case models.MetricAverageCyclomatic:
		mean, _ := complexityStats(findings[models.CategoryComplexity])
		return mean, nil
	case models.MetricMaxCyclomatic:
		_, max := complexityStats(findings[models.CategoryComplexity])
		return max, nil
	case models.MetricDuplicationRatio:
		return duplicationRatio(findings[models.CategoryComplexity]), nil
	case models.MetricAssertionDensity:
		return assertionCount(findings[models.CategoryAssertionUsage]) / float64(loc), nil
	default:
		return 0, fmt.Errorf("no reduction rule for metric kind %q", kind)
	}
}

// weightedCount sums the severity weights of count-style findings. An empty
// tool filters nothing; otherwise only that tool's findings are counted, so
// tools sharing a category keep separate metrics.
func weightedCount(findings []models.Finding, tool string) float64 {
	var sum float64
	for _, f := range findings {
		if tool != "" && f.Tool != tool {
			continue
		}
		if f.Metric != "" { // measurements never count as issues
			continue
		}
		sum += f.Severity.Weight()
	}
	return sum
}

// complexityStats returns the mean and maximum per-function cyclomatic
// complexity. Both are zero when no function measurements exist.
func complexityStats(findings []models.Finding) (mean, max float64) {
	var sum float64
	var n int
	for _, f := range findings {
		if f.Metric != adapter.MetricNameCyclomatic {
			continue
		}
		sum += f.Value
		if f.Value > max {
			max = f.Value
		}
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), max
}

func duplicationRatio(findings []models.Finding) float64 {
	for _, f := range findings {
		if f.Metric == adapter.MetricNameDuplication {
			return f.Value
		}
	}
	return 0
}

func assertionCount(findings []models.Finding) float64 {
	var sum float64
	for _, f := range findings {
		if f.Metric == adapter.MetricNameAssertion {
			sum += f.Value
		}
	}
	return sum
}
