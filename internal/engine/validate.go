package engine

import "fmt"

// ValidationSeverity indicates whether a validation issue is an error or warning.
type ValidationSeverity string

const (
	// SeverityError indicates a fatal validation issue; the configuration is unusable.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates a non-fatal validation issue.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity
	Field    string // dotted path, e.g. "toolchain.mode"
	Message  string
}

// ValidationResult holds all validation findings.
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasErrors reports whether any issue has error severity.
func (vr *ValidationResult) HasErrors() bool {
	for _, issue := range vr.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) add(sev ValidationSeverity, field, format string, args ...any) {
	vr.Issues = append(vr.Issues, ValidationIssue{
		Severity: sev,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

var validToolchainModes = map[string]bool{"local": true, "container": true}

// Validate checks a Config for internal consistency: unknown toolchain
// modes, a version ladder shorter than two entries, non-monotonic confidence
// thresholds, and non-positive compile or test timeouts surface as errors
// here rather than failing deep inside a bisection run. A non-positive
// max_concurrent_compiles, an out-of-range baseline and an empty ICE
// signature list are reported as warnings.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	if !validToolchainModes[cfg.Toolchain.Mode] {
		result.add(SeverityError, "toolchain.mode", "must be %q or %q, got %q", "local", "container", cfg.Toolchain.Mode)
	}
	if cfg.Toolchain.Mode == "container" && cfg.Toolchain.ImagePrefix == "" {
		result.add(SeverityError, "toolchain.image_prefix", "required when toolchain.mode = \"container\"")
	}

	if len(cfg.Versions.Seed) < 2 {
		result.add(SeverityError, "versions.seed", "must list at least two versions to bisect between")
	}

	cw := cfg.ConfidenceWeights
	if cw.UserUBThreshold >= cw.CompilerBugThreshold {
		result.add(SeverityError, "confidence_weights", "user_ub_threshold (%.2f) must be less than compiler_bug_threshold (%.2f)", cw.UserUBThreshold, cw.CompilerBugThreshold)
	}
	if cw.Baseline < 0 || cw.Baseline > 1 {
		result.add(SeverityWarning, "confidence_weights.baseline", "expected a value in [0,1], got %.2f", cw.Baseline)
	}

	if cfg.Budgets.CompileTimeoutSeconds <= 0 {
		result.add(SeverityError, "budgets.compile_timeout_seconds", "must be positive")
	}
	if cfg.Budgets.TestTimeoutSeconds <= 0 {
		result.add(SeverityError, "budgets.test_timeout_seconds", "must be positive")
	}
	if cfg.Budgets.MaxConcurrentCompiles <= 0 {
		result.add(SeverityWarning, "budgets.max_concurrent_compiles", "must be positive; defaulting to 1")
	}

	if len(cfg.ICESignatures.Substrings) == 0 {
		result.add(SeverityWarning, "ice_signatures.substrings", "empty; every compiler crash will be classified as a diagnostic instead of an internal compiler error")
	}

	return result
}
