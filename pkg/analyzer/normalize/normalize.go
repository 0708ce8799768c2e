// Package normalize maps raw metrics onto bounded sub-scores using the
// reference corpus distributions.
//
// Each raw metric is standardized against its reference distribution and
// pushed through a logistic curve:
//
//	z     = (value - mean) / stddev      (sign flipped for higher-is-better kinds)
//	score = MaxSubScore / (1 + e^z)
//
// Properties the rest of the pipeline depends on:
//
//  1. CENTERED: a program exactly at the corpus mean scores 50 for every
//     metric kind, so "average" is always mid-range.
//  2. MONOTONE: a strictly better raw value never scores lower. One
//     standard deviation better than the corpus maps to ~73, one worse
//     to ~27.
//  3. BOUNDED: extreme values saturate toward 0 and 100 instead of
//     diverging, so a single pathological metric cannot dominate the
//     weighted combination.
//  4. UNIFORM DIRECTION: after normalization, higher is better for every
//     kind. The weighted scorer relies on this and never looks at metric
//     direction again.
package normalize

import (
	"math"

	"github.com/portent-dev/portent/pkg/corpus"
	"github.com/portent-dev/portent/pkg/models"
)

// MaxSubScore is the upper bound of every normalized score.
const MaxSubScore = 100.0

// SubScore is a raw metric mapped into [0, MaxSubScore], together with the
// reference values used, so reports can show the full derivation.
type SubScore struct {
	Kind   models.MetricKind `json:"kind"`
	Raw    float64           `json:"raw"`
	Score  float64           `json:"score"`
	ZScore float64           `json:"z_score"`

	RefMean   float64 `json:"ref_mean"`
	RefStdDev float64 `json:"ref_stddev"`
	RefN      int     `json:"ref_n"`

	// Degenerate marks scores produced by the zero-variance fallback.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Normalize maps one raw metric value through its reference distribution.
func Normalize(kind models.MetricKind, value float64, dist corpus.Distribution) SubScore {
	s := SubScore{
		Kind:      kind,
		Raw:       value,
		RefMean:   dist.Mean,
		RefStdDev: dist.StdDev,
		RefN:      dist.N,
	}

	if dist.Degenerate() {
		// A corpus with no spread cannot grade distance from the mean.
		// Fall back to three-way scoring so monotonicity still holds:
		// at the mean -> midpoint, better side -> 100, worse side -> 0.
		s.Degenerate = true
		s.Score = degenerateScore(kind, value, dist.Mean)
		return s
	}

	z := (value - dist.Mean) / dist.StdDev
	if kind.HigherIsBetter() {
		z = -z
	}
	s.ZScore = z
	s.Score = round1(MaxSubScore / (1 + math.Exp(z)))
	return s
}

func degenerateScore(kind models.MetricKind, value, mean float64) float64 {
	switch {
	case value == mean:
		return MaxSubScore / 2
	case (value < mean) != kind.HigherIsBetter():
		return MaxSubScore
	default:
		return 0
	}
}

// round1 rounds to one decimal so reported scores are independent of
// floating-point summation order.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
