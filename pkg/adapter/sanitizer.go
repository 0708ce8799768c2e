package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

var (
	// asanError matches AddressSanitizer report headers, e.g.
	// "==12345==ERROR: AddressSanitizer: heap-buffer-overflow on address ...".
	asanError = regexp.MustCompile(`^==[0-9]+==\s*ERROR:\s*(.+)$`)

	// ubsanError matches UndefinedBehaviorSanitizer diagnostics, e.g.
	// "foo.c:10:13: runtime error: signed integer overflow ...".
	ubsanError = regexp.MustCompile(
		`^(.+\.(?:c|cc|cpp|cxx|h|hpp)):([0-9]+):([0-9]+):\s+runtime error:\s+(.+)$`)
)

// SanitizerAdapter extracts runtime errors from captured stderr of a
// sanitizer-instrumented execution (ASan with halt_on_error=0 plus UBSan).
type SanitizerAdapter struct{}

// NewSanitizer creates the sanitizer error adapter.
func NewSanitizer() *SanitizerAdapter {
	return &SanitizerAdapter{}
}

func (a *SanitizerAdapter) Tool() string { return "sanitizers" }

func (a *SanitizerAdapter) Category() models.Category { return models.CategorySanitizerError }

func (a *SanitizerAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricSanitizerErrorsPerKLOC}
}

// Parse scans the execution stderr for sanitizer reports. Every detected
// error is fatal severity: a sanitizer hit is a real memory or
// undefined-behavior defect, never a style matter.
func (a *SanitizerAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in sanitizer log"}
	}

	var findings []models.Finding
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if m := asanError.FindStringSubmatch(line); m != nil {
			findings = append(findings, models.Finding{
				Category: a.Category(),
				Severity: models.SeverityFatal,
				Tool:     "AddressSanitizer",
				Message:  strings.TrimSpace(m[1]),
			})
			continue
		}

		if m := ubsanError.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			colNo, _ := strconv.Atoi(m[3])
			findings = append(findings, models.Finding{
				Category: a.Category(),
				Severity: models.SeverityFatal,
				Location: models.Location{File: m[1], Line: lineNo, Column: colNo},
				Tool:     "UndefinedBehaviorSanitizer",
				Message:  strings.TrimSpace(m[4]),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}
	return findings, nil
}
