package adapter

import (
	"encoding/json"

	"github.com/portent-dev/portent/internal/sourcescan"
	"github.com/portent-dev/portent/pkg/models"
)

// MetricNameAssertion is the measurement name carried by assertion findings.
const MetricNameAssertion = "assertion"

// AssertionsAdapter converts a source scan result (JSON-encoded
// sourcescan.Result) into assertion-usage findings. The scan itself runs in
// the collaborator layer; like every other adapter this one only consumes a
// captured blob.
type AssertionsAdapter struct{}

// NewAssertions creates the assertion usage adapter.
func NewAssertions() *AssertionsAdapter {
	return &AssertionsAdapter{}
}

func (a *AssertionsAdapter) Tool() string { return "sourcescan" }

func (a *AssertionsAdapter) Category() models.Category { return models.CategoryAssertionUsage }

func (a *AssertionsAdapter) Metrics() []models.MetricKind {
	return []models.MetricKind{models.MetricAssertionDensity}
}

// Parse decodes the scan result. Each assertion occurrence becomes one
// finding with Value 1, so the aggregator's density reduction is a plain
// sum over findings.
func (a *AssertionsAdapter) Parse(raw []byte) ([]models.Finding, error) {
	var result sourcescan.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ParseError{Tool: a.Tool(), Reason: "invalid scan result: " + err.Error()}
	}

	findings := make([]models.Finding, 0, len(result.Assertions))
	for _, as := range result.Assertions {
		findings = append(findings, models.Finding{
			Category: a.Category(),
			Severity: models.SeverityInfo,
			Location: models.Location{File: as.File, Line: as.Line},
			Tool:     a.Tool(),
			Message:  as.Text,
			Metric:   MetricNameAssertion,
			Value:    1,
		})
	}
	return findings, nil
}
