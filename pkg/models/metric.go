package models

// MetricKind names a raw scalar statistic derived from a category's findings.
type MetricKind string

const (
	MetricCompilerWarningsPerKLOC  MetricKind = "compiler_warnings_per_kloc"
	MetricSanitizerErrorsPerKLOC   MetricKind = "sanitizer_errors_per_kloc"
	MetricCppcheckWarningsPerKLOC  MetricKind = "cppcheck_warnings_per_kloc"
	MetricClangTidyWarningsPerKLOC MetricKind = "clang_tidy_warnings_per_kloc"
	MetricStyleWarningsPerKLOC     MetricKind = "style_warnings_per_kloc"
	MetricAverageCyclomatic        MetricKind = "average_cyclomatic_complexity"
	MetricMaxCyclomatic            MetricKind = "max_cyclomatic_complexity"
	MetricDuplicationRatio         MetricKind = "duplication_ratio"
	MetricAssertionDensity         MetricKind = "assertion_density"
)

// MetricKinds lists all metric kinds in report order.
func MetricKinds() []MetricKind {
	return []MetricKind{
		MetricCompilerWarningsPerKLOC,
		MetricSanitizerErrorsPerKLOC,
		MetricCppcheckWarningsPerKLOC,
		MetricClangTidyWarningsPerKLOC,
		MetricStyleWarningsPerKLOC,
		MetricAverageCyclomatic,
		MetricMaxCyclomatic,
		MetricDuplicationRatio,
		MetricAssertionDensity,
	}
}

// HigherIsBetter reports the quality direction of a metric kind. For most
// kinds a larger raw value means worse code (warning rates, complexity,
// duplication); assertion density is the exception.
func (k MetricKind) HigherIsBetter() bool {
	return k == MetricAssertionDensity
}

// Category returns the analysis category a metric kind belongs to.
func (k MetricKind) Category() Category {
	switch k {
	case MetricCompilerWarningsPerKLOC:
		return CategoryCompilerWarning
	case MetricSanitizerErrorsPerKLOC:
		return CategorySanitizerError
	case MetricCppcheckWarningsPerKLOC, MetricClangTidyWarningsPerKLOC:
		return CategoryStaticAnalysis
	case MetricStyleWarningsPerKLOC:
		return CategoryStyleViolation
	case MetricAverageCyclomatic, MetricMaxCyclomatic, MetricDuplicationRatio:
		return CategoryComplexity
	case MetricAssertionDensity:
		return CategoryAssertionUsage
	default:
		return ""
	}
}

// CategoryMetrics returns the metric kinds belonging to a category, in
// report order.
func CategoryMetrics(c Category) []MetricKind {
	var kinds []MetricKind
	for _, k := range MetricKinds() {
		if k.Category() == c {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// RawMetric is a named non-negative scalar derived from one category's
// findings.
type RawMetric struct {
	Kind  MetricKind `json:"kind"`
	Value float64    `json:"value"`
}

// RawMetrics maps metric kinds to their aggregated values for one run.
type RawMetrics map[MetricKind]float64
