package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/report"
)

var ubDetectFlags reproducerFlags

var ubDetectCmd = &cobra.Command{
	Use:   "ub-detect",
	Short: "Classify a reproducer as undefined behavior or a likely compiler bug",
	Long: `ub-detect runs the UB classification stage alone: it compiles the
reproducer with UndefinedBehaviorSanitizer, checks whether its failure is
sensitive to optimization level, and (when the configured version ladder has
more than one entry) cross-checks it against a second compiler version. It
prints a confidence score rather than a bare verdict.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ubDetectFlags.resolve(); err != nil {
			return err
		}
		repro, err := ubDetectFlags.build()
		if err != nil {
			return err
		}

		env, err := newCascadeEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		orch := diagnose.New(env.provider, env.step, env.cfg, diagnose.WithStopAfter(diagnose.StateUB))
		diag, err := orch.Run(context.Background(), repro, ubDetectFlags.buildOracle(), env.testTimeout(), env.work.Path)
		if err != nil {
			return err
		}

		if flagJSON {
			return report.RenderJSON(os.Stdout, diag)
		}
		return report.RenderHuman(os.Stdout, diag)
	},
}

func init() {
	addReproducerFlags(ubDetectCmd, &ubDetectFlags)
	rootCmd.AddCommand(ubDetectCmd)
}
