package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeScoreProgram() string {
	return `Scores a C/C++ program's code quality from captured analyzer outputs.

USE WHEN:
- Grading a codebase after running its build and analysis tools
- Comparing a program against a reference corpus of peer programs
- Gating CI on a minimum quality score

INPUT LAYOUT:
- results_dir holds captured tool outputs under well-known names:
  compiler.log, sanitizer.log, cppcheck.log, clang-tidy.log,
  lizard.log, kwstyle.log. Absent files leave their metrics unavailable.
- source_dir (optional) is scanned for lines of code and assert usage;
  otherwise pass lines_of_code explicitly.

INTERPRETING RESULTS:
- Scores range 0-100; 50 means exactly average for the reference corpus
- One standard deviation better than the corpus maps to roughly 73
- Categories: compiler_warning, sanitizer_error, static_analysis,
  style_violation, complexity, assertion_usage
- Unavailable categories are excluded and their weight redistributed;
  each carries a reason (missing capture, unparseable output)
- Every sub-score carries its raw value, z-score, and the reference
  mean/stddev it was normalized against`
}

func describeFitCorpus() string {
	return `Fits reference distributions from a benchmark of analyzed programs.

USE WHEN:
- Building or refreshing the reference corpus that scoring normalizes against

INPUT LAYOUT:
- benchmark_dir contains one subdirectory per program, each laid out as a
  results directory (see score_program), plus either a src/ source tree or
  a loc file with the line count

INTERPRETING RESULTS:
- Each metric kind gets a mean, standard deviation, and sample count
- A stddev of 0 marks a degenerate distribution (single program or no
  spread); scoring falls back to three-way grading for those kinds
- Write the artifact with the output parameter and pass its path to
  score_program as corpus`
}

func describeShowCorpus() string {
	return `Prints the reference corpus distribution table.

USE WHEN:
- Inspecting what "average" means before interpreting scores
- Verifying a freshly fitted corpus artifact

METRICS RETURNED:
- Per metric kind: mean, standard deviation, sample count
- Artifact version and the number of fitted programs`
}
