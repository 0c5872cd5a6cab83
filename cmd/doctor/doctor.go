// Package doctor provides the "prpulse doctor" command for checking setup.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/prpulse/internal/config"
	ghsource "github.com/klytics/prpulse/internal/github"
	"github.com/klytics/prpulse/internal/output"
	"github.com/klytics/prpulse/internal/progress"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

type whoamiFunc func(ctx context.Context) (*ghsource.Identity, error)

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and GitHub access",
		Long:  "Run diagnostic checks to verify prpulse can build a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return output.UserError(err)
			}

			whoami := func(ctx context.Context) (*ghsource.Identity, error) {
				gh, err := ghsource.NewClient(ctx, ghsource.Options{
					Token:   cfg.GitHub.Token,
					BaseURL: cfg.GitHub.BaseURL,
				})
				if err != nil {
					return nil, err
				}
				spin := progress.NewSpinner("Checking GitHub token")
				spin.Start()
				id, err := gh.Whoami(ctx)
				spin.Stop("GitHub token checked")
				return id, err
			}

			checks := runChecks(cmd.Context(), cfg, cfgPath, whoami)

			if jsonOut {
				if err := output.FprintJSON(cmd.OutOrStdout(), "doctor", checks); err != nil {
					return err
				}
			} else {
				printChecks(cmd.OutOrStdout(), checks)
			}

			if n := countStatus(checks, "error"); n > 0 {
				return output.UserError(fmt.Errorf("%d check(s) failed", n))
			}
			return nil
		},
	}
}

func printChecks(w io.Writer, checks []Check) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(w, "prpulse doctor")
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)

	for _, c := range checks {
		var icon string
		switch c.Status {
		case "ok":
			icon = green("✓")
		case "warning":
			icon = yellow("!")
		case "error":
			icon = red("✗")
		}
		fmt.Fprintf(w, "  %s %s: %s\n", icon, c.Name, c.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %d passed, %d warnings, %d errors\n",
		countStatus(checks, "ok"), countStatus(checks, "warning"), countStatus(checks, "error"))
}

func countStatus(checks []Check, status string) int {
	n := 0
	for _, c := range checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

func runChecks(ctx context.Context, cfg *config.Config, cfgPath string, whoami whoamiFunc) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	configFile := cfgPath
	if configFile == "" {
		configFile = config.ConfigPath()
	}
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: configFile})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found; using defaults and environment", configFile),
		})
	}

	if team, err := config.LoadTeamConfig(); err != nil {
		checks = append(checks, Check{Name: "Team Config", Status: "error", Message: err.Error()})
	} else if team != nil {
		checks = append(checks, Check{Name: "Team Config", Status: "ok", Message: config.TeamConfigPath()})
	}

	if cfg.GitHub.Token == "" {
		checks = append(checks, Check{
			Name:    "GitHub Token",
			Status:  "error",
			Message: "Not set; export GITHUB_TOKEN or run 'prpulse config set github.token <token>'",
		})
	} else if id, err := whoami(ctx); err != nil {
		checks = append(checks, Check{Name: "GitHub Token", Status: "error", Message: err.Error()})
	} else {
		checks = append(checks, Check{
			Name:    "GitHub Token",
			Status:  "ok",
			Message: fmt.Sprintf("authenticated as %s (%d/%d API calls left)", id.Login, id.RateRemaining, id.RateLimit),
		})
	}

	if cfg.Org != "" {
		checks = append(checks, Check{Name: "Organization", Status: "ok", Message: cfg.Org})
	} else {
		checks = append(checks, Check{
			Name:    "Organization",
			Status:  "warning",
			Message: "Not set; pass --org or run 'prpulse config set org <name>'",
		})
	}

	if _, err := cfg.Location(); err != nil {
		checks = append(checks, Check{Name: "Timezone", Status: "error", Message: err.Error()})
	} else {
		checks = append(checks, Check{Name: "Timezone", Status: "ok", Message: cfg.Report.Timezone})
	}

	if cfg.AI.APIKey != "" {
		checks = append(checks, Check{Name: "AI Usage API", Status: "ok", Message: cfg.AI.BaseURL})
	} else {
		checks = append(checks, Check{
			Name:    "AI Usage API",
			Status:  "warning",
			Message: "No API key; AI metrics will be reported as no_api_key",
		})
	}

	return checks
}
