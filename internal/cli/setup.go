package cli

import (
	"fmt"
	"time"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/logging"
	"github.com/trace2pass/cldiag/internal/toolchain"
	"github.com/trace2pass/cldiag/internal/workdir"
)

// loadEngineConfig resolves engine.toml following the same precedence as
// every other config surface in this codebase: an explicit --config path
// wins, otherwise search upward from the working directory, otherwise fall
// back to built-in defaults.
func loadEngineConfig() (*engine.Config, error) {
	if flagConfig != "" {
		cfg, _, err := engine.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	cfg, err := engine.Resolve(".")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildProvider constructs the toolchain.Provider named by cfg.Toolchain.Mode.
func buildProvider(cfg *engine.Config) (toolchain.Provider, error) {
	switch cfg.Toolchain.Mode {
	case "container":
		return toolchain.NewContainerProvider(cfg.Toolchain.ImagePrefix, time.Duration(cfg.Toolchain.PullTimeoutSeconds)*time.Second), nil
	case "local":
		return toolchain.NewLocalProvider("clang", cfg.Toolchain.BinDirs), nil
	default:
		return nil, fmt.Errorf("unsupported toolchain mode %q", cfg.Toolchain.Mode)
	}
}

// cascadeEnv bundles the objects every cascade-running subcommand needs,
// plus the scoped work directory that must be torn down when the command
// exits.
type cascadeEnv struct {
	cfg      *engine.Config
	provider toolchain.Provider
	step     *compile.Step
	work     *workdir.Dir
}

func newCascadeEnv() (*cascadeEnv, error) {
	cfg, err := loadEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("loading engine config: %w", err)
	}
	if result := engine.Validate(cfg); result.HasErrors() {
		for _, issue := range result.Issues {
			if issue.Severity != engine.SeverityError {
				continue
			}
			fmt.Printf("config error [%s]: %s\n", issue.Field, issue.Message)
		}
		return nil, fmt.Errorf("invalid engine configuration")
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	work, err := workdir.New("cldiag-")
	if err != nil {
		return nil, err
	}

	logger := logging.New("compile")
	step := compile.NewStep(cfg.ICESignatures.Substrings, time.Duration(cfg.Budgets.CompileTimeoutSeconds)*time.Second, work.Path, logger)
	step.Gate = compile.NewConcurrencyGate(cfg.Budgets.MaxConcurrentCompiles)

	return &cascadeEnv{cfg: cfg, provider: provider, step: step, work: work}, nil
}

func (e *cascadeEnv) Close() error {
	return e.work.Close()
}

func (e *cascadeEnv) testTimeout() time.Duration {
	return time.Duration(e.cfg.Budgets.TestTimeoutSeconds) * time.Second
}
