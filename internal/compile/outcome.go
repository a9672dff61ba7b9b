package compile

import "time"

// OutcomeKind discriminates the CompileOutcome sum type. Exactly one of the
// Binary/InternalError/Diagnostic/Unavailable/Timeout accessors is meaningful
// for a given Kind; callers must switch on Kind rather than guess from which
// fields are populated.
type OutcomeKind int

const (
	// OutcomeBinary: compilation succeeded and produced an executable.
	OutcomeBinary OutcomeKind = iota
	// OutcomeInternalError: the compiler crashed (ICE) rather than rejecting
	// the input as invalid.
	OutcomeInternalError
	// OutcomeDiagnostic: the compiler rejected the input with an ordinary
	// error or warning diagnostic; this is not a compiler bug.
	OutcomeDiagnostic
	// OutcomeUnavailable: the requested toolchain version could not be
	// resolved at all; no compile was attempted.
	OutcomeUnavailable
	// OutcomeTimeout: the compile process was killed after exceeding the
	// configured wall-clock budget.
	OutcomeTimeout
)

// String renders the Kind for logs and reports.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBinary:
		return "binary"
	case OutcomeInternalError:
		return "internal_error"
	case OutcomeDiagnostic:
		return "diagnostic"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single compile attempt. It is a closed sum type
// over OutcomeKind: BinaryPath is only valid for OutcomeBinary, and so on.
// Stderr and Duration are populated for every kind except OutcomeUnavailable,
// which never reaches a subprocess.
type Outcome struct {
	Kind OutcomeKind

	// BinaryPath is the path to the produced executable, set only when
	// Kind == OutcomeBinary.
	BinaryPath string

	// Stderr is the compiler's captured standard error, used by ICE
	// classification and by the UB classifier's sanitizer-output scan.
	Stderr string
	// ExitCode is the compiler process's exit status, or -1 if it was
	// killed before exiting normally.
	ExitCode int
	// Duration is how long the compile process ran.
	Duration time.Duration

	// UnavailableReason explains why the toolchain could not be resolved,
	// set only when Kind == OutcomeUnavailable.
	UnavailableReason string
}

// IsAttempt reports whether this outcome counts as an "attempt" for bisection
// search-boundary purposes: Binary, InternalError, and Timeout move the
// search forward; Unavailable and Diagnostic are skip-neutral and must not
// move a bisection's boundaries.
func (o Outcome) IsAttempt() bool {
	switch o.Kind {
	case OutcomeBinary, OutcomeInternalError, OutcomeTimeout:
		return true
	default:
		return false
	}
}
