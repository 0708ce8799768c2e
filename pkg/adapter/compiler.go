package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

// warningLine matches clang diagnostics of the form
// "path/to/foo.cpp:42:15: warning: message [-Wconversion]".
var warningLine = regexp.MustCompile(
	`^(.+\.(?:c|cc|cpp|cxx|h|hpp)):([0-9]+):([0-9]+):\s+(warning|error):\s+(.*)$`)

// CompilerAdapter extracts compiler warnings from a captured build log
// produced with clang -Weverything.
type CompilerAdapter struct{}

// NewCompiler creates the compiler warning adapter.
func NewCompiler() *CompilerAdapter {
	return &CompilerAdapter{}
}

func (a *CompilerAdapter) Tool() string { return "clang" }

func (a *CompilerAdapter) Category() models.Category { return models.CategoryCompilerWarning }

func (a *CompilerAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricCompilerWarningsPerKLOC}
}

// Parse scans the build log for diagnostic lines. Code excerpts, notes and
// build-system chatter between diagnostics are skipped. The trailing warning
// flag, when present, selects the severity classification; diagnostics
// without a flag default to level 1.
func (a *CompilerAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in build log"}
	}

	var findings []models.Finding
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		m := warningLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])
		message := m[5]

		level := 1
		if flag, ok := trailingFlag(message); ok {
			message = strings.TrimSuffix(message, " ["+flag+"]")
			if l, known := compilerWarningLevels[flag]; known {
				level = l
			}
		}
		// Hard errors are always the highest classification.
		if m[4] == "error" {
			level = 3
		}

		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: severityForLevel(level),
			Location: models.Location{File: m[1], Line: lineNo, Column: colNo},
			Tool:     a.Tool(),
			Message:  message,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}
	return findings, nil
}

// trailingFlag extracts the "[-Wfoo]" suffix of a diagnostic message.
func trailingFlag(message string) (string, bool) {
	if !strings.HasSuffix(message, "]") {
		return "", false
	}
	idx := strings.LastIndex(message, "[")
	if idx < 0 {
		return "", false
	}
	flag := message[idx+1 : len(message)-1]
	if !strings.HasPrefix(flag, "-W") {
		return "", false
	}
	return flag, true
}
