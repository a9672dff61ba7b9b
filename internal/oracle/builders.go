package oracle

import (
	"context"
	"fmt"
	"time"
)

// ExpectedOutputOracle passes Stdin to the binary and compares its stdout
// verbatim against Want, the Go equivalent of the original project's
// create_test_function(expected_output, test_input, timeout) helper.
type ExpectedOutputOracle struct {
	Stdin string
	Want  string
}

// NewExpectedOutputOracle returns an Oracle that judges a binary by exact
// stdout match.
func NewExpectedOutputOracle(stdin, want string) *ExpectedOutputOracle {
	return &ExpectedOutputOracle{Stdin: stdin, Want: want}
}

// Judge implements Oracle.
func (o *ExpectedOutputOracle) Judge(ctx context.Context, binaryPath string, timeout time.Duration) (Verdict, error) {
	stdout, stderr, exitCode, duration, timedOut, err := runBinary(ctx, binaryPath, o.Stdin, timeout)
	if err != nil {
		return Verdict{}, err
	}
	if timedOut {
		return Verdict{Kind: VerdictTimeout, Stdout: stdout, Stderr: stderr, Duration: duration, Detail: "exceeded test timeout"}, nil
	}
	if stdout == o.Want {
		return Verdict{Kind: VerdictPassed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration}, nil
	}
	return Verdict{
		Kind: VerdictFailed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration,
		Detail: fmt.Sprintf("stdout mismatch: want %q, got %q", o.Want, stdout),
	}, nil
}

// ExitCodeOracle judges a binary solely by its process exit status, useful
// for reproducers that signal pass/fail via return code (e.g. assert()
// failures, which abort with SIGABRT).
type ExitCodeOracle struct {
	Stdin string
	Want  int
}

// NewExitCodeOracle returns an Oracle that judges a binary by exact exit code.
func NewExitCodeOracle(stdin string, want int) *ExitCodeOracle {
	return &ExitCodeOracle{Stdin: stdin, Want: want}
}

// Judge implements Oracle.
func (o *ExitCodeOracle) Judge(ctx context.Context, binaryPath string, timeout time.Duration) (Verdict, error) {
	stdout, stderr, exitCode, duration, timedOut, err := runBinary(ctx, binaryPath, o.Stdin, timeout)
	if err != nil {
		return Verdict{}, err
	}
	if timedOut {
		return Verdict{Kind: VerdictTimeout, Stdout: stdout, Stderr: stderr, Duration: duration, Detail: "exceeded test timeout"}, nil
	}
	if exitCode == o.Want {
		return Verdict{Kind: VerdictPassed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration}, nil
	}
	return Verdict{
		Kind: VerdictFailed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration,
		Detail: fmt.Sprintf("exit code mismatch: want %d, got %d", o.Want, exitCode),
	}, nil
}

// PredicateFunc inspects a completed run and returns whether it counts as a
// pass, plus an optional detail string for failures.
type PredicateFunc func(stdout, stderr string, exitCode int) (ok bool, detail string)

// PredicateOracle delegates the pass/fail decision to an arbitrary Go
// function, for reproducers whose failure signature is more complex than an
// exact string or exit-code match (e.g. "stdout contains one of these lines
// in any order").
type PredicateOracle struct {
	Stdin     string
	Predicate PredicateFunc
}

// NewPredicateOracle returns an Oracle backed by an arbitrary predicate.
func NewPredicateOracle(stdin string, predicate PredicateFunc) *PredicateOracle {
	return &PredicateOracle{Stdin: stdin, Predicate: predicate}
}

// Judge implements Oracle.
func (o *PredicateOracle) Judge(ctx context.Context, binaryPath string, timeout time.Duration) (Verdict, error) {
	stdout, stderr, exitCode, duration, timedOut, err := runBinary(ctx, binaryPath, o.Stdin, timeout)
	if err != nil {
		return Verdict{}, err
	}
	if timedOut {
		return Verdict{Kind: VerdictTimeout, Stdout: stdout, Stderr: stderr, Duration: duration, Detail: "exceeded test timeout"}, nil
	}
	ok, detail := o.Predicate(stdout, stderr, exitCode)
	if ok {
		return Verdict{Kind: VerdictPassed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration, Detail: detail}, nil
	}
	return Verdict{Kind: VerdictFailed, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration, Detail: detail}, nil
}
