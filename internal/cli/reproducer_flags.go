package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
)

// reproducerFlags holds the --source/--flag/--opt-level/... flags shared by
// every cascade-running subcommand.
type reproducerFlags struct {
	source         string
	lang           string
	flags          []string
	optLevel       string
	stdin          string
	expectStdout   string
	expectExitCode int
	startVersion   string
	interactive    bool
}

func addReproducerFlags(cmd *cobra.Command, f *reproducerFlags) {
	cmd.Flags().StringVar(&f.source, "source", "", "Path to the C/C++ reproducer source file (required unless --interactive)")
	cmd.Flags().StringVar(&f.lang, "lang", "c", `Source language: "c" or "c++"`)
	cmd.Flags().StringArrayVar(&f.flags, "flag", nil, "Compiler flag to pass, excluding -O<n> (repeatable)")
	cmd.Flags().StringVar(&f.optLevel, "opt-level", "2", "Optimization level the bug was observed under, e.g. \"2\"")
	cmd.Flags().StringVar(&f.stdin, "stdin", "", "Input fed to the compiled binary")
	cmd.Flags().StringVar(&f.expectStdout, "expect-stdout", "", "Expected stdout for a correct compile")
	cmd.Flags().IntVar(&f.expectExitCode, "expect-exit-code", 0, "Expected exit code when --expect-stdout is unset")
	cmd.Flags().StringVar(&f.startVersion, "known-bad-version", "", "Compiler version already known to reproduce the failure")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "Prompt for reproducer details instead of requiring --source")
}

// resolve fills in any still-empty fields via the interactive wizard when
// --interactive was given, then validates that --source ended up set.
func (f *reproducerFlags) resolve() error {
	if f.interactive {
		if err := runReproducerWizard(f); err != nil {
			return fmt.Errorf("interactive prompt: %w", err)
		}
	}
	if f.source == "" {
		return fmt.Errorf("--source is required (or pass --interactive)")
	}
	return nil
}

func (f reproducerFlags) build() (reproducer.Reproducer, error) {
	if f.source == "" {
		return reproducer.Reproducer{}, fmt.Errorf("--source is required")
	}
	return reproducer.Reproducer{
		SourcePath:           f.source,
		Flags:                f.flags,
		OptLevel:             f.optLevel,
		Language:             f.lang,
		Stdin:                f.stdin,
		ExpectedStdout:       f.expectStdout,
		ExpectedExitCode:     f.expectExitCode,
		FirstKnownBadVersion: f.startVersion,
	}, nil
}

// buildOracle returns the Oracle implied by a reproducerFlags value:
// exact-stdout match when --expect-stdout was given, exit-code match
// otherwise.
func (f reproducerFlags) buildOracle() oracle.Oracle {
	if f.expectStdout != "" {
		return oracle.NewExpectedOutputOracle(f.stdin, f.expectStdout)
	}
	return oracle.NewExitCodeOracle(f.stdin, f.expectExitCode)
}
