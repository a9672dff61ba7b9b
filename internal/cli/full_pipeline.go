package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/report"
	"github.com/trace2pass/cldiag/internal/tui"
)

var (
	fullPipelineFlags reproducerFlags
	fullPipelineWatch bool
)

var fullPipelineCmd = &cobra.Command{
	Use:   "full-pipeline",
	Short: "Run the complete UB -> version-bisect -> pass-bisect cascade",
	Long: `full-pipeline runs all three cascade stages in sequence, stopping
early the moment a stage fails to reach "proceed": UB classification
concluding anything other than "compiler_bug" (including "user_ub" and
"inconclusive"), or version bisection failing to find a regression.
With --watch, a live dashboard tracks each stage's progress instead of
printing only the final report.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fullPipelineFlags.resolve(); err != nil {
			return err
		}
		repro, err := fullPipelineFlags.build()
		if err != nil {
			return err
		}

		env, err := newCascadeEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := context.Background()
		opts := []diagnose.Option{diagnose.WithStopAfter(diagnose.StateDone)}

		var events chan diagnose.Event
		var watchErr chan error
		if fullPipelineWatch {
			events = make(chan diagnose.Event, 8)
			opts = append(opts, diagnose.WithEventChannel(events))
			watchErr = make(chan error, 1)
			go func() {
				watchErr <- tui.Run(ctx, events)
			}()
		}

		orch := diagnose.New(env.provider, env.step, env.cfg, opts...)
		diag, err := orch.Run(ctx, repro, fullPipelineFlags.buildOracle(), env.testTimeout(), env.work.Path)
		if events != nil {
			close(events)
			<-watchErr
		}
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
	addReproducerFlags(fullPipelineCmd, &fullPipelineFlags)
	fullPipelineCmd.Flags().BoolVar(&fullPipelineWatch, "watch", false, "Show a live dashboard of cascade progress instead of only the final report")
	rootCmd.AddCommand(fullPipelineCmd)
}
