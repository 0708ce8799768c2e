package adapter

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/portent-dev/portent/pkg/models"
)

const (
	// MetricNameCyclomatic is the measurement name carried by per-function
	// complexity findings.
	MetricNameCyclomatic = "cyclomatic_complexity"
	// MetricNameDuplication is the measurement name of the whole-program
	// duplication ratio finding.
	MetricNameDuplication = "duplication_ratio"
)

// functionRow matches lizard's per-function table rows:
// "      7      2     58      2       7 gcd@8-14@src/gcd.c"
var functionRow = regexp.MustCompile(
	`^\s*([0-9]+)\s+([0-9]+)\s+([0-9]+)\s+([0-9]+)\s+([0-9]+)\s+(\S+)@([0-9]+)-[0-9]+@(.+)$`)

// LizardAdapter extracts per-function cyclomatic complexity and the
// whole-program duplication ratio from captured "lizard -Eduplicate" output.
type LizardAdapter struct{}

// NewLizard creates the lizard adapter.
func NewLizard() *LizardAdapter {
	return &LizardAdapter{}
}

func (a *LizardAdapter) Tool() string { return "lizard" }

func (a *LizardAdapter) Category() models.Category { return models.CategoryComplexity }

func (a *LizardAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{
		models.MetricAverageCyclomatic,
		models.MetricMaxCyclomatic,
		models.MetricDuplicationRatio,
	}
}

// ObservedMetrics reports the kinds the parsed findings actually measured.
// The cyclomatic kinds need at least one function row; the duplication ratio
// needs the -Eduplicate trailer. A capture from a run without -Eduplicate
// must leave duplication unavailable rather than scoring it as zero.
func (a *LizardAdapter) ObservedMetrics(findings []models.Finding) []models.MetricKind {
	var sawCCN, sawDup bool
	for _, f := range findings {
		switch f.Metric {
		case MetricNameCyclomatic:
			sawCCN = true
		case MetricNameDuplication:
			sawDup = true
		}
	}

	var kinds []models.MetricKind
	if sawCCN {
		kinds = append(kinds, models.MetricAverageCyclomatic, models.MetricMaxCyclomatic)
	}
	if sawDup {
		kinds = append(kinds, models.MetricDuplicationRatio)
	}
	return kinds
}

// Parse reads the per-function table into complexity measurements and the
// -Eduplicate trailer into a duplication ratio measurement. Unlike the
// warning-style adapters, lizard output without its summary section is
// rejected: the table alone cannot be told apart from unrelated text.
func (a *LizardAdapter) Parse(raw []byte) ([]models.Finding, error) {
	if looksBinary(raw) {
		return nil, &ParseError{Tool: a.Tool(), Reason: "binary content in lizard output"}
	}

	var (
		findings    []models.Finding
		sawSummary  bool
		duplication = -1.0
	)

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "Total nloc") {
			sawSummary = true
			continue
		}
		if rate, ok := trailerRate(line, "Total duplicate rate:"); ok {
			duplication = rate
			continue
		}
		if rate, ok := trailerRate(line, "Total unique rate:"); ok && duplication < 0 {
			duplication = 1 - rate
			continue
		}

		m := functionRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ccn, _ := strconv.Atoi(m[2])
		startLine, _ := strconv.Atoi(m[7])
		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: models.SeverityInfo,
			Location: models.Location{File: m[8], Line: startLine},
			Tool:     a.Tool(),
			Message:  m[6],
			Metric:   MetricNameCyclomatic,
			Value:    float64(ccn),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: err.Error()}
	}

	if !sawSummary {
		return nil, &ParseError{Tool: a.Tool(), Reason: "missing summary section"}
	}
	if duplication >= 0 {
		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: models.SeverityInfo,
			Tool:     a.Tool(),
			Message:  "whole-program duplication ratio",
			Metric:   MetricNameDuplication,
			Value:    duplication,
		})
	}
	return findings, nil
}

// trailerRate parses "<prefix> 8.93%" trailer lines into a 0-1 ratio.
func trailerRate(line, prefix string) (float64, bool) {
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	fields := strings.Fields(line)
	pct := strings.TrimSuffix(fields[len(fields)-1], "%")
	v, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}
