// Package cmd contains all CLI commands for the prpulse binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/prpulse/cmd/completion"
	cmdconfig "github.com/klytics/prpulse/cmd/config"
	"github.com/klytics/prpulse/cmd/doctor"
	"github.com/klytics/prpulse/cmd/report"
	"github.com/klytics/prpulse/cmd/version"
	"github.com/klytics/prpulse/cmd/window"
	"github.com/klytics/prpulse/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configPath string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prpulse",
		Short: "Pull request and commit metrics for a team",
		Long: `prpulse reports how a team's pull requests move.

For every user in a roster it counts created, merged, open and abandoned
pull requests, merge times, code churn, coding days and optional AI
assistant usage over whole Monday-Sunday weeks, then rolls the figures up
for the organization.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			if jsonOutput {
				// Progress output checks this to stay quiet.
				os.Setenv("PRPULSE_JSON", "true")
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.prpulse/config.yaml)")

	// Register subcommands
	rootCmd.AddCommand(report.NewCommand())
	rootCmd.AddCommand(window.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		os.Exit(handleError(cmd, err))
	}
}

// handleError reports err on stderr, or as a JSON envelope on stdout with
// --json, and returns the exit code.
func handleError(cmd *cobra.Command, err error) int {
	code := output.ExitCode(err)
	if jsonOutput {
		name := "prpulse"
		if cmd != nil {
			name = cmd.Name()
		}
		if encErr := output.PrintJSONError(name, err, code); encErr == nil {
			return code
		}
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	return code
}
