package engine

// defaultVersionSeed mirrors the version ladder the original Python
// VersionBisector shipped with (clang 14.0.0 through 21.1.0), used when
// engine.toml omits [versions].seed.
var defaultVersionSeed = []string{
	"14.0.0", "15.0.0", "16.0.0", "17.0.1", "18.1.0", "19.1.0", "20.1.0", "21.1.0",
}

// defaultICESignatures are the canonical stderr substrings that separate an
// internal compiler error from a user-facing diagnostic.
var defaultICESignatures = []string{
	"Internal compiler error",
	"PLEASE submit a bug report",
	"Assertion failed",
	"Assertion `",
	"Stack dump:",
	"UNREACHABLE executed",
}

// defaultSeverityWeights scale an AnomalyReport's priority by check_type.
var defaultSeverityWeights = map[string]float64{
	"compiler_bug":  1.0,
	"user_ub":       0.3,
	"ice":           1.5,
	"unclassified":  0.5,
}

// NewDefaults returns a Config populated with all built-in defaults. CLI
// flags and an engine.toml file may each override pieces of it; this is the
// last resort when neither is present.
func NewDefaults() *Config {
	return &Config{
		Versions: VersionsConfig{
			Seed: append([]string(nil), defaultVersionSeed...),
		},
		ICESignatures: ICESignaturesConfig{
			Substrings: append([]string(nil), defaultICESignatures...),
		},
		SeverityWeights: cloneWeights(defaultSeverityWeights),
		ConfidenceWeights: ConfidenceWeightsConfig{
			Baseline:             0.5,
			UBSanCleanBonus:      0.3,
			UBSanDirtyPenalty:    0.4,
			OptSensitivityBonus:  0.2,
			CrossCompilerBonus:   0.15,
			CrashAsymmetryBonus:  0.25,
			CompilerBugThreshold: 0.6,
			UserUBThreshold:      0.3,
		},
		Toolchain: ToolchainConfig{
			Mode:               "local",
			ImagePrefix:        "silkeh/clang",
			PullTimeoutSeconds: 300,
		},
		Budgets: BudgetsConfig{
			CompileTimeoutSeconds: 60,
			TestTimeoutSeconds:    30,
			MaxCompileAttempts:    64,
			MaxConcurrentCompiles: 4,
		},
	}
}

func cloneWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
