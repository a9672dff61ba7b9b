package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/ingest"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/report"
	"github.com/trace2pass/cldiag/internal/reproducer"
)

var (
	analyzeReportStorePath string
	analyzeReportAll       bool
)

var analyzeReportCmd = &cobra.Command{
	Use:   "analyze-report",
	Short: "Run the full cascade against the highest-priority stored anomaly report",
	Long: `analyze-report pulls the highest-priority AnomalyReport out of the
ingest store (ranked by frequency, check-type severity, and recency) and
runs the full diagnosis cascade against it. With --all, every stored report
is processed in priority order instead of just the first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCascadeEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := ingest.NewStore(analyzeReportStorePath, env.cfg.SeverityWeights)
		if err != nil {
			return err
		}

		now := time.Now()
		var reports []ingest.AnomalyReport
		if analyzeReportAll {
			reports = store.All(now)
		} else if r, ok := store.Next(now); ok {
			reports = []ingest.AnomalyReport{r}
		}

		if len(reports) == 0 {
			cmd.Println("no anomaly reports in the store")
			return nil
		}

		orch := diagnose.New(env.provider, env.step, env.cfg)
		for _, r := range reports {
			repro, err := reproducer.FromAnomalyReport(r)
			if err != nil {
				cmd.PrintErrf("skipping report: %v\n", err)
				continue
			}
			judge := oracleFor(repro)
			diag, err := orch.Run(context.Background(), repro, judge, env.testTimeout(), env.work.Path)
			if err != nil {
				cmd.PrintErrf("diagnosis failed for %s: %v\n", repro.SourcePath, err)
				continue
			}
			if flagJSON {
				if err := report.RenderJSON(os.Stdout, diag); err != nil {
					return err
				}
			} else if err := report.RenderHuman(os.Stdout, diag); err != nil {
				return err
			}
		}
		return nil
	},
}

// oracleFor builds the appropriate oracle for a reconstructed reproducer:
// exact stdout match when the report recorded expected output, otherwise a
// zero-exit-code expectation.
func oracleFor(repro reproducer.Reproducer) oracle.Oracle {
	if repro.ExpectedStdout != "" {
		return oracle.NewExpectedOutputOracle(repro.Stdin, repro.ExpectedStdout)
	}
	return oracle.NewExitCodeOracle(repro.Stdin, 0)
}

func init() {
	analyzeReportCmd.Flags().StringVar(&analyzeReportStorePath, "store", "anomalies.jsonl", "Path to the anomaly report store")
	analyzeReportCmd.Flags().BoolVar(&analyzeReportAll, "all", false, "Process every stored report instead of just the highest-priority one")
	rootCmd.AddCommand(analyzeReportCmd)
}
