package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if f.file == nil {
		t.Error("file should not be nil for file output")
	}
	if f.colored {
		t.Error("colored should be false when writing to file")
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Error("output file should exist")
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/report.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func TestTableRenderText(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  []string
	}{
		{
			name: "category_table",
			table: NewTable(
				"Category Scores",
				[]string{"Category", "Score", "Weight"},
				[][]string{
					{"compiler_warning", "73.1", "0.20"},
					{"complexity", "48.2", "0.20"},
				},
				nil,
				nil,
			),
			want: []string{"Category Scores", "CATEGORY", "SCORE", "compiler_warning", "73.1", "48.2"},
		},
		{
			name: "table_with_footer",
			table: NewTable(
				"Summary",
				[]string{"Metric", "Value"},
				[][]string{{"categories scored", "5"}},
				[]string{"Final", "61.4"},
				nil,
			),
			want: []string{"Summary", "METRIC", "categories scored", "61.4"},
		},
		{
			name:  "no_title",
			table: NewTable("", []string{"A", "B"}, [][]string{{"1", "2"}}, nil, nil),
			want:  []string{"A", "B", "1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.table.RenderText(&buf, false); err != nil {
				t.Fatalf("RenderText() error: %v", err)
			}
			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("RenderText() missing %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable(
		"Sub-Scores",
		[]string{"Kind", "Raw", "Score"},
		[][]string{{"duplication_ratio", "0.12", "55.0"}},
		[]string{"Final", "", "61.4"},
		nil,
	)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	output := buf.String()
	want := []string{"## Sub-Scores", "| Kind | Raw | Score |", "| --- | --- | --- |", "| duplication_ratio | 0.12 | 55.0 |", "| Final |  | 61.4 |"}
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", w, output)
		}
	}
}

func TestTableRenderData(t *testing.T) {
	t.Run("with_data_field", func(t *testing.T) {
		data := map[string]any{"score": 61.4}
		table := NewTable("Title", []string{"H1"}, [][]string{{"R1"}}, nil, data)

		result, ok := table.RenderData().(map[string]any)
		if !ok || result["score"] != 61.4 {
			t.Errorf("RenderData() = %v, want the Data field", table.RenderData())
		}
	})

	t.Run("without_data_field", func(t *testing.T) {
		table := NewTable(
			"Test",
			[]string{"Kind", "Score"},
			[][]string{{"assertion_density", "82.3"}},
			nil,
			nil,
		)

		rows, ok := table.RenderData().([]map[string]string)
		if !ok {
			t.Fatalf("RenderData() should return []map[string]string, got %T", table.RenderData())
		}
		if rows[0]["Kind"] != "assertion_density" || rows[0]["Score"] != "82.3" {
			t.Errorf("RenderData() row 0 = %v", rows[0])
		}
	})
}

func TestSectionRenderText(t *testing.T) {
	section := &Section{
		Title:   "Failures",
		Content: "cppcheck: unparseable output",
		Sections: []Section{
			{Title: "Detail", Content: "binary content"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Failures", "===", "cppcheck: unparseable output", "Detail", "---", "binary content"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, output)
		}
	}
}

func TestSectionRenderMarkdown(t *testing.T) {
	section := &Section{
		Title:   "Derivation",
		Content: "z-scores against the reference corpus",
		Sections: []Section{
			{Title: "Degenerate Metrics", Content: "none"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"## Derivation", "### Degenerate Metrics", "none"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, output)
		}
	}
}

func TestReportRender(t *testing.T) {
	report := &Report{
		Title: "portent score",
		Sections: []Renderable{
			&Section{Title: "Summary", Content: "Final score 61.4 over 5 categories"},
			NewTable(
				"Categories",
				[]string{"Category", "Score"},
				[][]string{{"complexity", "48.2"}},
				nil,
				nil,
			),
		},
	}

	var text bytes.Buffer
	if err := report.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"portent score", "Summary", "Final score 61.4", "complexity"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, text.String())
		}
	}

	var md bytes.Buffer
	if err := report.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	for _, want := range []string{"# portent score", "## Summary", "## Categories"} {
		if !strings.Contains(md.String(), want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, md.String())
		}
	}
}

func TestFormatterOutputJSON(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "result.json")

	f, err := NewFormatter(FormatJSON, outputPath, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	data := map[string]any{
		"program": "demo",
		"score":   61.4,
	}
	if err := f.Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if result["program"] != "demo" || result["score"].(float64) != 61.4 {
		t.Errorf("round-tripped result = %v", result)
	}
}

func TestFormatterMessageMethods(t *testing.T) {
	tests := []struct {
		name   string
		method func(*Formatter, string, ...any)
		format string
		args   []any
		want   string
	}{
		{"success", (*Formatter).Success, "score %0.1f passes", []any{61.4}, "score 61.4 passes"},
		{"warning", (*Formatter).Warning, "2 categories unavailable", nil, "WARNING: 2 categories unavailable"},
		{"error", (*Formatter).Error, "corpus not found", nil, "ERROR: corpus not found"},
		{"info", (*Formatter).Info, "scoring %s", []any{"demo"}, "scoring demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "out.txt")
			f, err := NewFormatter(FormatText, outputPath, false)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}

			tt.method(f, tt.format, tt.args...)
			f.Close()

			content, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !strings.Contains(string(content), tt.want) {
				t.Errorf("output = %q, want to contain %q", content, tt.want)
			}
		})
	}
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score float64
		text  string
	}{
		{95.0, "excellent"},
		{70.0, "boundary green"},
		{55.5, "middling"},
		{40.0, "boundary yellow"},
		{12.3, "poor"},
		{0, "floor"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := ScoreColor(tt.score, tt.text)
			if !strings.Contains(result, tt.text) {
				t.Errorf("ScoreColor(%v, %q) = %q, should contain the text", tt.score, tt.text, result)
			}
		})
	}
}

func TestFormatterMarkdownRawData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "raw.md")

	f, err := NewFormatter(FormatMarkdown, outputPath, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if err := f.Output(map[string]string{"key": "value"}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(content), "```json") {
		t.Error("markdown output for raw data should contain a json code block")
	}
}
