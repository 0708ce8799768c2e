package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

// clangTidyLine matches clang-tidy diagnostics of the form
// "foo.cpp:42:15: warning: message [bugprone-branch-clone]".
var clangTidyLine = regexp.MustCompile(
	`^(.+\.(?:c|cc|cpp|cxx|h|hpp)):([0-9]+):([0-9]+):\s+(?:warning|error):\s+(.*)\s+\[([a-z-]+(?:,[a-z-]+)*)\]$`)

// ClangTidyAdapter extracts findings from captured clang-tidy output.
type ClangTidyAdapter struct{}

// NewClangTidy creates the clang-tidy adapter.
func NewClangTidy() *ClangTidyAdapter {
	return &ClangTidyAdapter{}
}

func (a *ClangTidyAdapter) Tool() string { return "clang-tidy" }

func (a *ClangTidyAdapter) Category() models.Category { return models.CategoryStaticAnalysis }

func (a *ClangTidyAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricClangTidyWarningsPerKLOC}
}

// Parse scans for diagnostic lines carrying a check name. The check group
// prefix (bugprone-, modernize-, ...) selects the severity classification;
// unknown groups stay at level 1. "n warnings generated." headers, notes
// and code excerpts are skipped.
func (a *ClangTidyAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in clang-tidy output"}
	}

	var findings []models.Finding
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := clangTidyLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])
		check := m[5]
		if idx := strings.IndexByte(check, ','); idx >= 0 {
			check = check[:idx]
		}

		level := 1
		group := check
		if idx := strings.IndexByte(group, '-'); idx >= 0 {
			group = group[:idx]
		}
		if l, known := clangTidyCheckLevels[group]; known {
			level = l
		}

		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: severityForLevel(level),
			Location: models.Location{File: m[1], Line: lineNo, Column: colNo},
			Tool:     a.Tool(),
			Message:  strings.TrimSpace(m[4]) + " [" + check + "]",
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}
	return findings, nil
}
