// Package score combines normalized sub-scores into category scores and a
// single final score, carrying the full derivation so every reported number
// can be traced back to the raw tool output that produced it.
package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/portent-dev/portent/pkg/adapter"
	"github.com/portent-dev/portent/pkg/analyzer/aggregate"
	"github.com/portent-dev/portent/pkg/analyzer/normalize"
	"github.com/portent-dev/portent/pkg/corpus"
	"github.com/portent-dev/portent/pkg/models"
)

// ErrNoScorableCategory is returned when every category is unavailable and
// no final score can be produced.
var ErrNoScorableCategory = errors.New("no category could be scored")

// Program is one program's captured analyzer outputs plus its size.
type Program struct {
	Name        string
	LinesOfCode int
	Outputs     []adapter.ToolOutput
}

// MetricScore is one metric's normalized sub-score annotated with the
// weights it entered its category with.
type MetricScore struct {
	normalize.SubScore

	Weight          float64 `json:"weight"`
	EffectiveWeight float64 `json:"effective_weight"`

	// Unavailable metrics carry no score; Reason says why.
	Unavailable bool   `json:"unavailable,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// CategoryScore is the weighted mean of one category's available metrics.
type CategoryScore struct {
	Category models.Category `json:"category"`
	Score    float64         `json:"score"`
	Metrics  []MetricScore   `json:"metrics"`

	Weight          float64 `json:"weight"`
	EffectiveWeight float64 `json:"effective_weight"`

	Unavailable bool   `json:"unavailable,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Result is a complete scoring run: the final score plus every intermediate
// value needed to reproduce it by hand.
type Result struct {
	Program     string          `json:"program"`
	Score       float64         `json:"score"`
	LinesOfCode int             `json:"lines_of_code"`
	Categories  []CategoryScore `json:"categories"`

	Failures []adapter.Failure `json:"failures,omitempty"`

	CorpusPrograms int       `json:"corpus_programs"`
	ScoredAt       time.Time `json:"scored_at"`
}

// Passed reports whether the final score clears a minimum threshold.
func (r *Result) Passed(minScore float64) bool {
	return r.Score >= minScore
}

// Engine scores programs against a fixed reference corpus and weight table.
type Engine struct {
	ref     *corpus.Corpus
	weights Weights
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default weight tables.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// New creates a scoring engine. The weight tables are validated here so a
// bad configuration fails before any program is scored.
func New(ref *corpus.Corpus, opts ...Option) (*Engine, error) {
	e := &Engine{ref: ref, weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Weights returns the engine's validated weight tables.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score runs the full pipeline for one program: parse every tool output,
// reduce findings to raw metrics, normalize against the corpus, and combine
// with weighted means. Categories whose metrics are all unavailable are
// excluded and their weight redistributed proportionally over the rest.
func (e *Engine) Score(ctx context.Context, p Program) (*Result, error) {
	ex := adapter.RunAll(p.Outputs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := aggregate.Aggregate(ex, p.LinesOfCode)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", p.Name, err)
	}

	result := &Result{
		Program:        p.Name,
		LinesOfCode:    p.LinesOfCode,
		Failures:       ex.Failures,
		CorpusPrograms: e.ref.Programs,
		ScoredAt:       time.Now().UTC(),
	}

	var scorable []models.Category
	byCategory := make(map[models.Category]*CategoryScore)
	for _, cat := range models.Categories() {
		cs := e.scoreCategory(cat, ex, raw)
		byCategory[cat] = cs
		if !cs.Unavailable {
			scorable = append(scorable, cat)
		}
	}
	if len(scorable) == 0 {
		return nil, fmt.Errorf("%w: %d tool outputs, %d failures", ErrNoScorableCategory, len(p.Outputs), len(ex.Failures))
	}

	effective := redistribute(e.weights.Categories, scorable)
	var final float64
	for _, cat := range models.Categories() {
		cs := byCategory[cat]
		if w, ok := effective[cat]; ok {
			cs.EffectiveWeight = w
			final += w * cs.Score
		}
		result.Categories = append(result.Categories, *cs)
	}
	result.Score = round1(final)
	return result, nil
}

// scoreCategory normalizes a category's available metrics and combines them
// with the category's metric weights, renormalized over what is available.
func (e *Engine) scoreCategory(cat models.Category, ex *adapter.Extraction, raw models.RawMetrics) *CategoryScore {
	cs := &CategoryScore{
		Category: cat,
		Weight:   e.weights.Categories[cat],
	}

	var available []models.MetricKind
	scored := make(map[models.MetricKind]normalize.SubScore)
	for _, kind := range models.CategoryMetrics(cat) {
		ms := MetricScore{Weight: e.weights.Metrics[kind]}
		ms.Kind = kind

		value, ok := raw[kind]
		dist, hasDist := e.ref.Distribution(kind)
		switch {
		case !ok:
			ms.Unavailable = true
			ms.Reason = availabilityReason(kind, ex)
		case !hasDist:
			ms.Unavailable = true
			ms.Reason = "no reference distribution in corpus"
			ms.Raw = value
		default:
			ms.SubScore = normalize.Normalize(kind, value, dist)
			scored[kind] = ms.SubScore
			available = append(available, kind)
		}
		cs.Metrics = append(cs.Metrics, ms)
	}

	if len(available) == 0 {
		cs.Unavailable = true
		cs.Reason = cs.Metrics[0].Reason
		return cs
	}

	effective := redistribute(e.weights.Metrics, available)
	var sum float64
	for i := range cs.Metrics {
		kind := cs.Metrics[i].Kind
		if w, ok := effective[kind]; ok {
			cs.Metrics[i].EffectiveWeight = w
			sum += w * scored[kind].Score
		}
	}
	cs.Score = round1(sum)
	return cs
}

// availabilityReason explains why a metric kind produced no raw value,
// preferring the recorded parse failure over the generic absence message.
func availabilityReason(kind models.MetricKind, ex *adapter.Extraction) string {
	for _, f := range ex.Failures {
		if f.Category == kind.Category() {
			return f.Reason
		}
	}
	if _, present := ex.Available[kind]; !present {
		return "no tool output provided"
	}
	return "no measurement in tool output"
}

// round1 rounds to one decimal, matching sub-score precision so the final
// score is independent of map iteration order.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
