package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/portent-dev/portent/pkg/models"
)

// ErrWeightConfiguration is returned when a weight table is rejected at
// configuration-load time. Weight problems are never deferred to run time:
// a skewed table must fail before any score is produced.
var ErrWeightConfiguration = errors.New("invalid weight configuration")

// weightSumTolerance absorbs decimal round-off in hand-written configs.
const weightSumTolerance = 1e-6

// Weights holds the fixed weight tables: one weight per category in the
// final combination and one weight per metric kind within its category.
type Weights struct {
	Categories map[models.Category]float64   `json:"categories" koanf:"categories"`
	Metrics    map[models.MetricKind]float64 `json:"metrics" koanf:"metrics"`
}

// DefaultWeights returns the built-in weight tables. Category weights and
// each category's metric weights sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
		Categories: map[models.Category]float64{
			models.CategoryCompilerWarning: 0.20,
			models.CategorySanitizerError:  0.20,
			models.CategoryStaticAnalysis:  0.20,
			models.CategoryStyleViolation:  0.10,
			models.CategoryComplexity:      0.20,
			models.CategoryAssertionUsage:  0.10,
		},
		Metrics: map[models.MetricKind]float64{
			models.MetricCompilerWarningsPerKLOC:  1.0,
			models.MetricSanitizerErrorsPerKLOC:   1.0,
			models.MetricCppcheckWarningsPerKLOC:  0.50,
			models.MetricClangTidyWarningsPerKLOC: 0.50,
			models.MetricStyleWarningsPerKLOC:     1.0,
			models.MetricAverageCyclomatic:        0.50,
			models.MetricMaxCyclomatic:            0.25,
			models.MetricDuplicationRatio:         0.25,
			models.MetricAssertionDensity:         1.0,
		},
	}
}

// Validate rejects weight tables that are negative, reference unknown
// categories or metric kinds, or do not sum to 1.0 per group.
func (w Weights) Validate() error {
	var catSum float64
	for cat, weight := range w.Categories {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrWeightConfiguration, cat)
		}
		if weight < 0 {
			return fmt.Errorf("%w: category %s has negative weight %g", ErrWeightConfiguration, cat, weight)
		}
		catSum += weight
	}
	if math.Abs(catSum-1) > weightSumTolerance {
		return fmt.Errorf("%w: category weights sum to %g, want 1.0", ErrWeightConfiguration, catSum)
	}

	for kind, weight := range w.Metrics {
		if kind.Category() == "" {
			return fmt.Errorf("%w: unknown metric kind %q", ErrWeightConfiguration, kind)
		}
		if weight < 0 {
			return fmt.Errorf("%w: metric %s has negative weight %g", ErrWeightConfiguration, kind, weight)
		}
	}
	for _, cat := range models.Categories() {
		var sum float64
		for _, kind := range models.CategoryMetrics(cat) {
			sum += w.Metrics[kind]
		}
		if math.Abs(sum-1) > weightSumTolerance {
			return fmt.Errorf("%w: metric weights for %s sum to %g, want 1.0", ErrWeightConfiguration, cat, sum)
		}
	}
	return nil
}

// redistribute renormalizes weights over the available keys so they sum to
// 1.0 again, implementing the proportional-redistribution policy for
// unavailable categories and metrics.
func redistribute[K comparable](weights map[K]float64, available []K) map[K]float64 {
	var sum float64
	for _, k := range available {
		sum += weights[k]
	}
	out := make(map[K]float64, len(available))
	if sum == 0 {
		// All remaining weight was on unavailable entries; spread evenly.
		for _, k := range available {
			out[k] = 1 / float64(len(available))
		}
		return out
	}
	for _, k := range available {
		out[k] = weights[k] / sum
	}
	return out
}
