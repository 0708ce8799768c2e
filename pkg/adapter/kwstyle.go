package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

// kwstyleError matches KWStyle -v report lines:
// "Error #3 (21) Line length exceed 100 (max=90)"
var kwstyleError = regexp.MustCompile(`^Error #[0-9]+\s+\(([0-9]+)\)\s+(.*)$`)

// KWStyleAdapter extracts style violations from concatenated KWStyle -v
// output (one section per source file).
type KWStyleAdapter struct{}

// NewKWStyle creates the KWStyle adapter.
func NewKWStyle() *KWStyleAdapter {
	return &KWStyleAdapter{}
}

func (a *KWStyleAdapter) Tool() string { return "kwstyle" }

func (a *KWStyleAdapter) Category() models.Category { return models.CategoryStyleViolation }

func (a *KWStyleAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricStyleWarningsPerKLOC}
}

// Parse counts "Error #..." lines. Bare paths preceding each section name
// the file the following errors belong to. Style violations are always
// level-1 severity.
func (a *KWStyleAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in kwstyle output"}
	}

	var (
		findings []models.Finding
		current  string
	)
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if m := kwstyleError.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[1])
			findings = append(findings, models.Finding{
				Category: a.Category(),
				Severity: models.SeverityWarning,
				Location: models.Location{File: current, Line: lineNo},
				Tool:     a.Tool(),
				Message:  strings.TrimSpace(m[2]),
			})
			continue
		}

		// KWStyle prints the file being checked on its own line.
		if trimmed := strings.TrimSpace(line); trimmed != "" && isSourcePath(trimmed) {
			current = trimmed
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}
	return findings, nil
}

func isSourcePath(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	for _, ext := range []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hpp"} {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}
