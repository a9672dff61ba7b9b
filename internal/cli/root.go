// Package cli implements the cldiag command-line surface: a cobra root
// command plus one subcommand per cascade entry point (ub-detect,
// version-bisect, pass-bisect, analyze-report, full-pipeline), following the
// same global-flag/PersistentPreRunE/logging-setup shape used throughout
// this codebase's CLI layer.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/trace2pass/cldiag/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
	flagDir     string
	flagJSON    bool
	flagNoColor bool
)

// rootCmd is the base command for cldiag.
var rootCmd = &cobra.Command{
	Use:   "cldiag",
	Short: "Post-mortem diagnosis engine for C/C++ compiler miscompilations",
	Long: `cldiag diagnoses suspected C/C++ compiler miscompilations. Given a
reproducer, it runs a cascade of three stages -- undefined-behavior
classification, compiler-version bisection, and optimization-pass bisection
-- to decide whether a failure is undefined behavior in the reporter's own
code or a genuine compiler bug, and if the latter, exactly which compiler
version and optimization pass introduced it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("verbose") && os.Getenv("CLDIAG_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("CLDIAG_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("CLDIAG_NO_COLOR") != "") {
			flagNoColor = true
		}

		jsonFormat := os.Getenv("CLDIAG_LOG_FORMAT") == "json"
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)

		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: CLDIAG_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: CLDIAG_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to engine.toml config file")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Override working directory")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit machine-readable JSON instead of a human report")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output (env: CLDIAG_NO_COLOR, NO_COLOR)")
}

// Execute runs the root command and returns the process exit code: 0 for a
// conclusive run (including a conclusive "user_ub" verdict), 1 for any
// error that prevented a diagnosis from completing.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// NewRootCmd returns a fresh root command tree for tools (shell-completion
// and man-page generators) that need an isolated cobra.Command instance.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           rootCmd.Use,
		Short:         rootCmd.Short,
		Long:          rootCmd.Long,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, child := range rootCmd.Commands() {
		cmd.AddCommand(child)
	}
	return cmd
}
