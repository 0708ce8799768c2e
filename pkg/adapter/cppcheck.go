package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

// cppcheckLine matches cppcheck's default text report format:
// "[foo.c:42] (style) The scope of the variable 'x' can be reduced."
// The line part is optional for whole-file messages.
var cppcheckLine = regexp.MustCompile(`^\[([^\]:]+)(?::([0-9]+))?\]\s+\(([a-z]+)\)\s+(.*)$`)

// CppcheckAdapter extracts findings from captured cppcheck --enable=all output.
type CppcheckAdapter struct{}

// NewCppcheck creates the cppcheck adapter.
func NewCppcheck() *CppcheckAdapter {
	return &CppcheckAdapter{}
}

func (a *CppcheckAdapter) Tool() string { return "cppcheck" }

func (a *CppcheckAdapter) Category() models.Category { return models.CategoryStaticAnalysis }

func (a *CppcheckAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricCppcheckWarningsPerKLOC}
}

// Parse scans for "[file:line] (type) message" lines; progress output
// ("Checking foo.c ...") and anything else is skipped. Unknown message
// types are kept at level-1 severity so newer cppcheck versions still parse.
func (a *CppcheckAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in cppcheck output"}
	}

	var findings []models.Finding
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := cppcheckLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		level, known := cppcheckTypeLevels[m[3]]
		if !known {
			level = 1
		}

		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: severityForLevel(level),
			Location: models.Location{File: m[1], Line: lineNo},
			Tool:     a.Tool(),
			Message:  strings.TrimSpace(m[4]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}
	return findings, nil
}
