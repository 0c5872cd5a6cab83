// Package config provides CLI commands for configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/prpulse/internal/config"
	"github.com/klytics/prpulse/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prpulse configuration",
		Long: `View and modify prpulse settings.

Settings come from ~/.prpulse/config.yaml, the team config and PRPULSE_*
environment variables (GITHUB_TOKEN and GH_TOKEN are also read).`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())
	cmd.AddCommand(newTeamTemplateCommand())

	return cmd
}

func load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if _, err := config.Load(path); err != nil {
		return output.UserError(err)
	}
	return nil
}

func newShowCommand() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if err := load(cmd); err != nil {
				return err
			}

			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "config show", config.Settings())
			}
			if asYAML {
				s, err := config.ShowYAML()
				if err != nil {
					return output.SystemError(err)
				}
				fmt.Fprint(cmd.OutOrStdout(), s)
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the effective configuration as YAML")
	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			if err := config.Set(args[0], args[1]); err != nil {
				return output.SystemError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			val := config.Get(args[0])
			if val == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: (not set)\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return output.SystemError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file paths",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
			fmt.Fprintln(cmd.OutOrStdout(), config.TeamConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if err := load(cmd); err != nil {
				return err
			}

			issues := config.Validate()
			if team, err := config.LoadTeamConfig(); err == nil && team != nil {
				for _, msg := range config.ValidateTeamConfig(team) {
					issues = append(issues, config.ConfigIssue{Key: "team", Severity: "error", Message: msg})
				}
			}

			errors := 0
			warnings := 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					errors++
				case "warning":
					warnings++
				}
			}

			if jsonFlag {
				if err := output.FprintJSON(cmd.OutOrStdout(), "config validate", issues); err != nil {
					return err
				}
			} else {
				printIssues(cmd, issues, errors, warnings)
			}

			if errors > 0 {
				return output.UserError(fmt.Errorf("%d configuration error(s)", errors))
			}
			return nil
		},
	}
}

func printIssues(cmd *cobra.Command, issues []config.ConfigIssue, errors, warnings int) {
	out := cmd.OutOrStdout()
	if errors == 0 && warnings == 0 {
		color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
		return
	}

	fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n", errors, warnings)

	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			color.New(color.FgRed).Fprintf(out, "  %s\n", issue.Message)
		case "warning":
			color.New(color.FgYellow).Fprintf(out, "  %s\n", issue.Message)
		case "info":
			color.New(color.FgGreen).Fprintf(out, "  %s\n", issue.Message)
		}
		if issue.Fix != "" {
			fmt.Fprintf(out, "   Fix: %s\n", issue.Fix)
		}
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if err := load(cmd); err != nil {
				return err
			}

			env := config.ToEnv()

			if jsonFlag {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}

			// Sort keys for deterministic output
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "export %s=%q\n", k, env[k])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# Add these to your ~/.zshrc or ~/.bashrc")
			return nil
		},
	}
}

func newTeamTemplateCommand() *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "team-template",
		Short: "Print a team config template",
		Long: `Print a team config template for administrators.

Team values are defaults for every user on the machine; personal config and
environment variables override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateTeamTemplate(org))
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "Organization to put in the template")
	return cmd
}
