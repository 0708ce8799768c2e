// Package sourcescan measures C/C++ sources directly: pure-code line counts
// (blank and comment lines excluded) and assertion usage. It is the only
// part of the pipeline that reads source files; everything else consumes
// captured tool output.
package sourcescan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/sourcegraph/conc/pool"
)

// Assertion is one assert or static_assert occurrence.
type Assertion struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Result holds the scan outcome for a set of source files.
type Result struct {
	Files       int         `json:"files"`
	LinesOfCode int         `json:"lines_of_code"`
	Assertions  []Assertion `json:"assertions"`
}

// Scanner scans C/C++ sources with tree-sitter.
type Scanner struct {
	maxFileSize int64
}

// Option configures the Scanner.
type Option func(*Scanner)

// WithMaxFileSize sets the maximum file size to scan (0 = no limit).
func WithMaxFileSize(size int64) Option {
	return func(s *Scanner) {
		s.maxFileSize = size
	}
}

// New creates a source scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cppExtensions selects the C++ grammar; everything else that looks like a
// C-family source gets the C grammar.
var cppExtensions = map[string]bool{
	".cc": true, ".cpp": true, ".cxx": true, ".hpp": true, ".hh": true, ".hxx": true,
}

var cExtensions = map[string]bool{
	".c": true, ".h": true,
}

// IsSourceFile reports whether path has a C/C++ source extension.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return cExtensions[ext] || cppExtensions[ext]
}

// FindSourceFiles walks dir and returns all C/C++ source files, sorted.
// Directories whose name matches one of the excludeDirs patterns (glob
// syntax, e.g. "cmake-build-*") are skipped; .git and build are always
// skipped. The root itself is never excluded, whatever its name.
func FindSourceFiles(dir string, excludeDirs ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && excludedDir(d.Name(), excludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func excludedDir(name string, patterns []string) bool {
	if name == ".git" || name == "build" {
		return true
	}
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ScanFiles scans the given files in parallel and merges the results.
func (s *Scanner) ScanFiles(ctx context.Context, files []string) (*Result, error) {
	merged := &Result{}
	var mu sync.Mutex

	p := pool.New().WithErrors().WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			fr, err := s.scanFile(path)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if fr == nil { // skipped
				return nil
			}
			mu.Lock()
			merged.Files++
			merged.LinesOfCode += fr.LinesOfCode
			merged.Assertions = append(merged.Assertions, fr.Assertions...)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	// Deterministic order regardless of scheduling.
	sort.Slice(merged.Assertions, func(i, j int) bool {
		a, b := merged.Assertions[i], merged.Assertions[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return merged, nil
}

func (s *Scanner) scanFile(path string) (*Result, error) {
	if s.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > s.maxFileSize {
			return nil, nil
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lang := c.GetLanguage()
	if cppExtensions[strings.ToLower(filepath.Ext(path))] {
		lang = cpp.GetLanguage()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	defer tree.Close()

	fr := &Result{LinesOfCode: countCodeLines(tree.RootNode(), source)}
	collectAssertions(tree.RootNode(), source, path, fr)
	return fr, nil
}

// countCodeLines counts lines that contain something besides whitespace and
// comments.
func countCodeLines(root *sitter.Node, source []byte) int {
	lines := strings.Split(string(source), "\n")

	// Blank out comment ranges, then count non-blank lines.
	masked := []byte(strings.Join(lines, "\n"))
	walk(root, func(n *sitter.Node) {
		if n.Type() != "comment" {
			return
		}
		for i := n.StartByte(); i < n.EndByte() && int(i) < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	})

	count := 0
	for _, line := range strings.Split(string(masked), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// collectAssertions finds assert() calls and static_assert declarations.
func collectAssertions(root *sitter.Node, source []byte, path string, fr *Result) {
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return
			}
			name := fn.Content(source)
			if name != "assert" && name != "static_assert" {
				return
			}
		case "static_assert_declaration":
			// C11/C++11 static_assert is its own node type.
		default:
			return
		}
		fr.Assertions = append(fr.Assertions, Assertion{
			File: path,
			Line: int(n.StartPoint().Row) + 1,
			Text: firstLine(n.Content(source)),
		})
	})
}

func walk(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
