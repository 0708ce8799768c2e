// Package models defines the shared data types for portent analysis results.
package models

import "fmt"

// Category identifies the analysis category a finding belongs to.
type Category string

const (
	CategoryCompilerWarning Category = "compiler_warning"
	CategorySanitizerError  Category = "sanitizer_error"
	CategoryStaticAnalysis  Category = "static_analysis"
	CategoryStyleViolation  Category = "style_violation"
	CategoryComplexity      Category = "complexity"
	CategoryAssertionUsage  Category = "assertion_usage"
)

// Categories lists all categories in report order.
func Categories() []Category {
	return []Category{
		CategoryCompilerWarning,
		CategorySanitizerError,
		CategoryStaticAnalysis,
		CategoryStyleViolation,
		CategoryComplexity,
		CategoryAssertionUsage,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCompilerWarning, CategorySanitizerError, CategoryStaticAnalysis,
		CategoryStyleViolation, CategoryComplexity, CategoryAssertionUsage:
		return true
	}
	return false
}

// Severity classifies how urgently a finding should be addressed.
// The ordering is significant: higher values indicate more severe findings.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Weight returns the aggregation weight for a severity level.
// Informational findings do not count against the score; the remaining
// levels follow the 1-3 classification used by the warning tables.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityFatal:
		return 3
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	case "fatal":
		*s = SeverityFatal
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Location identifies where in the analyzed sources a finding occurred.
// Line and Column are zero when the originating tool reports whole-program
// observations.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String implements fmt.Stringer.
func (l Location) String() string {
	switch {
	case l.File == "":
		return "<program>"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Finding is one normalized observation extracted from a tool's output.
// Findings are immutable once created; they live only for the duration of a
// scoring run.
type Finding struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Location Location `json:"location"`
	Tool     string   `json:"tool"`
	Message  string   `json:"message,omitempty"`

	// Metric and Value carry measurement findings (per-function cyclomatic
	// complexity, duplication ratio, assertion counts). For count-style
	// findings both are zero values.
	Metric string  `json:"metric,omitempty"`
	Value  float64 `json:"value,omitempty"`
}
