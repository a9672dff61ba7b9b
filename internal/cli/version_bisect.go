package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/report"
)

var versionBisectFlags reproducerFlags

var versionBisectCmd = &cobra.Command{
	Use:   "version-bisect",
	Short: "Bisect the configured compiler version ladder to find a regression",
	Long: `version-bisect runs UB classification followed by the version
bisection stage: it walks the configured version ladder to find the oldest
version at which the reproducer still passes and the newest at which it
fails, then binary searches between them, skipping any version whose
toolchain can't be resolved or which rejects the source with an ordinary
diagnostic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := versionBisectFlags.resolve(); err != nil {
			return err
		}
		repro, err := versionBisectFlags.build()
		if err != nil {
			return err
		}

		env, err := newCascadeEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		orch := diagnose.New(env.provider, env.step, env.cfg, diagnose.WithStopAfter(diagnose.StateVersion))
		diag, err := orch.Run(context.Background(), repro, versionBisectFlags.buildOracle(), env.testTimeout(), env.work.Path)
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
	addReproducerFlags(versionBisectCmd, &versionBisectFlags)
	rootCmd.AddCommand(versionBisectCmd)
}
