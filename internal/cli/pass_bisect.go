package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/passbisect"
	"github.com/trace2pass/cldiag/internal/report"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

var passBisectFlags reproducerFlags

var passBisectCmd = &cobra.Command{
	Use:   "pass-bisect",
	Short: "Bisect a single compiler version's optimization pipeline to find the culprit pass",
	Long: `pass-bisect runs the pass bisection stage directly against a single,
already-known-bad compiler version (--known-bad-version), skipping UB
classification and version bisection. It extracts the optimization pipeline
the compiler would run at --opt-level and binary searches prefixes of it for
the shortest prefix that reproduces the failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := passBisectFlags.resolve(); err != nil {
			return err
		}
		repro, err := passBisectFlags.build()
		if err != nil {
			return err
		}
		if repro.FirstKnownBadVersion == "" {
			return fmt.Errorf("pass-bisect requires --known-bad-version")
		}

		env, err := newCascadeEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := context.Background()
		handle, err := env.provider.Resolve(ctx, repro.FirstKnownBadVersion)
		if err != nil {
			return err
		}
		optBin := toolchain.DeriveOptBinary(handle.Executable)
		bisector := passbisect.NewBisector(handle, handle.Executable, optBin, env.work.Path, time.Duration(env.cfg.Budgets.CompileTimeoutSeconds)*time.Second)

		_, finding, err := bisector.Bisect(ctx, repro, optOrDefaultLevel(passBisectFlags.optLevel), passBisectFlags.buildOracle(), env.testTimeout())
		if err != nil {
			return err
		}

		diag := standaloneDiagnosis(repro, finding)
		if flagJSON {
			return report.RenderJSON(os.Stdout, diag)
		}
		return report.RenderHuman(os.Stdout, diag)
	},
}

func init() {
	addReproducerFlags(passBisectCmd, &passBisectFlags)
	rootCmd.AddCommand(passBisectCmd)
}

// standaloneDiagnosis wraps a single stage.Finding in a diagnose.Diagnosis so
// standalone single-stage subcommands can reuse the shared report renderer.
func standaloneDiagnosis(repro reproducer.Reproducer, finding stage.Finding) diagnose.Diagnosis {
	d := diagnose.Diagnosis{Reproducer: repro, Pass: finding, FinalVerdict: finding.Verdict, FinalConfidence: finding.Confidence}
	if finding.Verdict == "pass_bisected" {
		d.FinalVerdict = "compiler_regression"
		d.CulpritPass = finding.CulpritPass
	}
	return d
}

func optOrDefaultLevel(level string) string {
	if level == "" {
		return "2"
	}
	if level[0] == 'O' {
		return level[1:]
	}
	return level
}
