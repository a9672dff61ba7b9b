// Command cldiag-eval replays a directory of historical reproducer fixtures
// through the diagnosis cascade and reports how many still reach their
// recorded expected verdict. It carries no bisection logic of its own; it
// only wires the recorded fixtures into internal/diagnose.Orchestrator.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/eval"
	"github.com/trace2pass/cldiag/internal/logging"
	"github.com/trace2pass/cldiag/internal/toolchain"
	"github.com/trace2pass/cldiag/internal/workdir"
)

var (
	fixturesDir string
	configPath  string
)

var rootCmd = &cobra.Command{
	Use:   "cldiag-eval",
	Short: "Replay historical reproducer fixtures through the diagnosis cascade",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fixtures, err := eval.LoadFixtures(fixturesDir)
		if err != nil {
			return err
		}
		if len(fixtures) == 0 {
			cmd.Printf("no fixtures found under %s\n", fixturesDir)
			return nil
		}

		provider, err := buildProvider(cfg)
		if err != nil {
			return err
		}

		work, err := workdir.New("cldiag-eval-")
		if err != nil {
			return err
		}
		defer work.Close()

		step := compile.NewStep(cfg.ICESignatures.Substrings, time.Duration(cfg.Budgets.CompileTimeoutSeconds)*time.Second, work.Path, logging.New("compile"))
		step.Gate = compile.NewConcurrencyGate(cfg.Budgets.MaxConcurrentCompiles)

		matrix := eval.RunMatrix(context.Background(), fixtures, provider, step, cfg, work.Path)
		for _, c := range matrix.Cases {
			status := "FAIL"
			if c.Passed {
				status = "PASS"
			}
			if c.Err != nil {
				cmd.Printf("%s %-24s error: %v\n", status, c.Fixture, c.Err)
				continue
			}
			cmd.Printf("%s %-24s got=%-20s want=%-20s\n", status, c.Fixture, c.Got, c.Want)
		}
		cmd.Printf("\n%d/%d fixtures passed\n", matrix.Passed(), len(matrix.Cases))
		if matrix.Passed() != len(matrix.Cases) {
			return fmt.Errorf("%d fixture(s) did not reach their expected verdict", len(matrix.Cases)-matrix.Passed())
		}
		return nil
	},
}

func loadConfig() (*engine.Config, error) {
	if configPath != "" {
		cfg, _, err := engine.LoadFromFile(configPath)
		return cfg, err
	}
	return engine.Resolve(".")
}

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

func init() {
	rootCmd.Flags().StringVar(&fixturesDir, "dir", "fixtures", "Directory containing one subdirectory per fixture")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to engine.toml config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
