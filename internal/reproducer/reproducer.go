// Package reproducer defines the Reproducer record — the immutable input
// every diagnosis stage operates on — and builds one from a raw anomaly
// report for the analyze-report entry point.
package reproducer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Reproducer is the minimal, self-contained description of a miscompilation
// report: a single source file, the flags it was compiled with, and the
// input/expectation pair a TestOracle judges its binary against. Every
// cascade stage (UB classification, version bisection, pass bisection) reads
// from a Reproducer and never mutates it.
type Reproducer struct {
	// SourcePath is the path to the C/C++ source file under test.
	SourcePath string
	// Flags are the compiler flags the reporter observed the bug under,
	// excluding -O<n> and the output flag, both of which bisection stages
	// vary themselves.
	Flags []string
	// OptLevel is the optimization level the reporter observed the bug
	// under, e.g. "O2".
	OptLevel string
	// Language is "c" or "c++", used to pick the compiler family.
	Language string
	// Stdin is fed to the compiled binary.
	Stdin string
	// ExpectedStdout is the output a correct compile is expected to
	// produce; empty means the oracle instead judges by exit code.
	ExpectedStdout string
	// ExpectedExitCode is used when ExpectedStdout is empty.
	ExpectedExitCode int
	// FirstKnownBadVersion seeds bisection when the reporter already
	// narrowed the bug to "broken starting around version X".
	FirstKnownBadVersion string
}

// Validate checks that the Reproducer is well-formed enough to drive a
// cascade: the source path must be set, the file must exist, and Language
// must be "c" or "c++". Expected output and exit code are not checked.
func (r Reproducer) Validate() error {
	if r.SourcePath == "" {
		return fmt.Errorf("reproducer: source path is required")
	}
	if _, err := os.Stat(r.SourcePath); err != nil {
		return fmt.Errorf("reproducer: source file %s: %w", r.SourcePath, err)
	}
	if r.Language != "c" && r.Language != "c++" {
		return fmt.Errorf("reproducer: language must be \"c\" or \"c++\", got %q", r.Language)
	}
	return nil
}

// CompilerFamily returns the executable family name ("clang" or "clang++")
// matching r.Language.
func (r Reproducer) CompilerFamily() string {
	if r.Language == "c++" {
		return "clang++"
	}
	return "clang"
}

// OutputName returns the base name for a compiled binary derived from the
// source file's stem, used when callers don't need a specific name.
func (r Reproducer) OutputName() string {
	stem := filepath.Base(r.SourcePath)
	ext := filepath.Ext(stem)
	return stem[:len(stem)-len(ext)] + ".out"
}
