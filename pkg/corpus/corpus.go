// Package corpus manages the reference distribution table fitted from a
// benchmark of previously analyzed programs. The table is loaded once at
// startup, validated, and treated as immutable for the life of the process.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/portent-dev/portent/pkg/models"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// ArtifactVersion is the corpus file format version this build understands.
const ArtifactVersion = 1

// Distribution summarizes one metric kind's values across the benchmark.
type Distribution struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	// N is the number of corpus programs the parameters were fitted from.
	N int `json:"n" yaml:"n"`
}

// Degenerate reports whether the distribution carries no spread, either
// because it was fitted from a single program or because every program
// scored identically.
func (d Distribution) Degenerate() bool {
	return d.StdDev == 0
}

// Corpus is the versioned reference table keyed by metric kind.
type Corpus struct {
	Version  int                                `json:"version" yaml:"version"`
	FittedAt time.Time                          `json:"fitted_at" yaml:"fitted_at"`
	Programs int                                `json:"programs" yaml:"programs"`
	Metrics  map[models.MetricKind]Distribution `json:"metrics" yaml:"metrics"`
}

// Distribution returns the reference distribution for a metric kind.
func (c *Corpus) Distribution(kind models.MetricKind) (Distribution, bool) {
	d, ok := c.Metrics[kind]
	return d, ok
}

// Kinds returns the metric kinds present in the corpus, sorted.
func (c *Corpus) Kinds() []models.MetricKind {
	kinds := make([]models.MetricKind, 0, len(c.Metrics))
	for k := range c.Metrics {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Fit computes reference distributions from per-kind sample vectors.
// Single-sample kinds get a zero standard deviation (degenerate), which the
// normalizer handles with its fallback rather than dividing by zero.
func Fit(samples map[models.MetricKind][]float64, programs int) *Corpus {
	c := &Corpus{
		Version:  ArtifactVersion,
		FittedAt: time.Now().UTC(),
		Programs: programs,
		Metrics:  make(map[models.MetricKind]Distribution, len(samples)),
	}
	for kind, xs := range samples {
		if len(xs) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			mean, std = xs[0], 0
		}
		c.Metrics[kind] = Distribution{Mean: mean, StdDev: std, N: len(xs)}
	}
	return c
}

// Load reads and validates a corpus artifact. YAML and JSON are accepted,
// chosen by file extension.
func Load(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var c Corpus
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// Validation works on the JSON form; re-encode first.
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing corpus: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parsing corpus: %w", err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
	}

	if err := validate(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("invalid corpus %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}
	if c.Version != ArtifactVersion {
		return nil, fmt.Errorf("corpus version %d not supported (want %d)", c.Version, ArtifactVersion)
	}
	return &c, nil
}

// Save writes the corpus artifact. YAML and JSON are supported, chosen by
// file extension.
func (c *Corpus) Save(path string) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(c)
	case ".json":
		raw, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing corpus: %w", err)
	}
	return nil
}
