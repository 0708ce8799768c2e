package adapter

import (
	"testing"

	"github.com/portent-dev/portent/pkg/models"
)

const buildLog = `[ 25%] Building C object CMakeFiles/demo.dir/src/main.c.o
src/main.c:14:9: warning: implicit conversion loses integer precision: 'long' to 'int' [-Wshorten-64-to-32]
    int n = strlen(buf);
        ^   ~~~~~~~~~~~
src/main.c:30:5: warning: unused variable 'tmp' [-Wunused-variable]
src/util.cpp:7:10: warning: comparing floating point with == or != is unsafe [-Wfloat-equal]
src/util.cpp:12:1: error: expected ';' after return statement
note: expanded from macro 'CHECK'
2 warnings generated.
`

func TestCompilerParse(t *testing.T) {
	findings, err := NewCompiler().Parse([]byte(buildLog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(findings) != 4 {
		t.Fatalf("Parse() returned %d findings, want 4", len(findings))
	}

	tests := []struct {
		idx      int
		file     string
		line     int
		severity models.Severity
	}{
		{0, "src/main.c", 14, models.SeverityFatal},   // -Wshorten-64-to-32 is level 3
		{1, "src/main.c", 30, models.SeverityError},   // -Wunused-variable is level 2
		{2, "src/util.cpp", 7, models.SeverityFatal},  // -Wfloat-equal is level 3
		{3, "src/util.cpp", 12, models.SeverityFatal}, // hard errors always level 3
	}

	for _, tt := range tests {
		f := findings[tt.idx]
		if f.Location.File != tt.file || f.Location.Line != tt.line {
			t.Errorf("finding %d location = %s, want %s:%d", tt.idx, f.Location, tt.file, tt.line)
		}
		if f.Severity != tt.severity {
			t.Errorf("finding %d severity = %s, want %s", tt.idx, f.Severity, tt.severity)
		}
		if f.Category != models.CategoryCompilerWarning {
			t.Errorf("finding %d category = %s", tt.idx, f.Category)
		}
	}

	// Flag suffixes are stripped from messages.
	if got := findings[1].Message; got != "unused variable 'tmp'" {
		t.Errorf("message = %q, want flag suffix stripped", got)
	}
}

func TestCompilerParseUnknownFlag(t *testing.T) {
	log := "a.c:1:1: warning: something new [-Wfrom-the-future]\n"
	findings, err := NewCompiler().Parse([]byte(log))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Severity != models.SeverityWarning {
		t.Errorf("unknown flag severity = %s, want %s (level 1 default)", findings[0].Severity, models.SeverityWarning)
	}
}

func TestCompilerParseNoFlag(t *testing.T) {
	log := "a.c:5:3: warning: some diagnostic without a flag\n"
	findings, err := NewCompiler().Parse([]byte(log))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(findings) != 1 || findings[0].Severity != models.SeverityWarning {
		t.Errorf("flagless diagnostics should default to level 1, got %+v", findings)
	}
}

func TestCompilerParseEmpty(t *testing.T) {
	findings, err := NewCompiler().Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("empty log should yield no findings, got %d", len(findings))
	}
}

func TestCompilerParseBinary(t *testing.T) {
	_, err := NewCompiler().Parse([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01})
	if err == nil {
		t.Fatal("binary blob should be rejected")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("error type = %T, want *ParseError", err)
	}
}

func TestTrailingFlag(t *testing.T) {
	tests := []struct {
		message string
		flag    string
		ok      bool
	}{
		{"unused variable 'x' [-Wunused-variable]", "-Wunused-variable", true},
		{"array index 4 is past the end [-Warray-bounds]", "-Warray-bounds", true},
		{"no flag at all", "", false},
		{"check name suffix [bugprone-foo]", "", false},
		{"trailing bracket only]", "", false},
	}

	for _, tt := range tests {
		flag, ok := trailingFlag(tt.message)
		if flag != tt.flag || ok != tt.ok {
			t.Errorf("trailingFlag(%q) = (%q, %v), want (%q, %v)", tt.message, flag, ok, tt.flag, tt.ok)
		}
	}
}
