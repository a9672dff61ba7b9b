// Package engine defines the hoisted configuration that every diagnosis
// stage (UB classification, version bisection, pass bisection) reads from.
// Configuration lives in a single engine.toml file decoded with
// BurntSushi/toml, following the same load/validate/defaults split the rest
// of this codebase uses for its own configuration surfaces.
package engine

// Config is the top-level configuration structure mapping to engine.toml.
type Config struct {
	Versions         VersionsConfig          `toml:"versions"`
	ICESignatures    ICESignaturesConfig     `toml:"ice_signatures"`
	SeverityWeights  map[string]float64      `toml:"severity_weights"`
	ConfidenceWeights ConfidenceWeightsConfig `toml:"confidence_weights"`
	Toolchain        ToolchainConfig         `toml:"toolchain"`
	Budgets          BudgetsConfig           `toml:"budgets"`
}

// VersionsConfig maps to the [versions] section: the ordered seed list of
// compiler versions VersionBisector walks, oldest first.
type VersionsConfig struct {
	Seed []string `toml:"seed"`
}

// ICESignaturesConfig maps to the [ice_signatures] section: stderr substrings
// that, case-sensitively, identify an internal compiler error rather than a
// user-facing diagnostic.
type ICESignaturesConfig struct {
	Substrings []string `toml:"substrings"`
}

// ConfidenceWeightsConfig maps to the [confidence_weights] section used by
// the UB classifier's scoring function.
type ConfidenceWeightsConfig struct {
	Baseline             float64 `toml:"baseline"`
	UBSanCleanBonus       float64 `toml:"ubsan_clean_bonus"`
	UBSanDirtyPenalty     float64 `toml:"ubsan_dirty_penalty"`
	OptSensitivityBonus   float64 `toml:"opt_sensitivity_bonus"`
	CrossCompilerBonus    float64 `toml:"cross_compiler_bonus"`
	CrashAsymmetryBonus   float64 `toml:"crash_asymmetry_bonus"`
	CompilerBugThreshold  float64 `toml:"compiler_bug_threshold"`
	UserUBThreshold       float64 `toml:"user_ub_threshold"`
}

// ToolchainConfig maps to the [toolchain] section: how compiler versions are
// resolved to executables.
type ToolchainConfig struct {
	// Mode is "local" (versioned executables on PATH) or "container" (Docker
	// images). Never falls back between the two silently.
	Mode string `toml:"mode"`
	// BinDirs are extra directories searched for versioned executables
	// (clang-14, clang-18, ...) before the plain PATH lookup.
	BinDirs []string `toml:"bin_dirs"`
	// ImagePrefix is the Docker image family used in container mode, e.g.
	// "silkeh/clang" -> "silkeh/clang:18".
	ImagePrefix string `toml:"image_prefix"`
	// PullTimeoutSeconds bounds how long a `docker pull` is allowed to run.
	PullTimeoutSeconds int `toml:"pull_timeout_seconds"`
}

// BudgetsConfig maps to the [budgets] section: resource ceilings that bound
// the cascade's total work.
type BudgetsConfig struct {
	CompileTimeoutSeconds int `toml:"compile_timeout_seconds"`
	TestTimeoutSeconds    int `toml:"test_timeout_seconds"`
	MaxCompileAttempts    int `toml:"max_compile_attempts"`
	MaxConcurrentCompiles int `toml:"max_concurrent_compiles"`
}
