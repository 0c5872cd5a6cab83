// Package report provides the "prpulse report" command.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdwindow "github.com/klytics/prpulse/cmd/window"
	"github.com/klytics/prpulse/internal/aiusage"
	"github.com/klytics/prpulse/internal/collect"
	"github.com/klytics/prpulse/internal/config"
	ghsource "github.com/klytics/prpulse/internal/github"
	"github.com/klytics/prpulse/internal/logging"
	"github.com/klytics/prpulse/internal/metrics"
	"github.com/klytics/prpulse/internal/output"
	"github.com/klytics/prpulse/internal/progress"
	"github.com/klytics/prpulse/internal/render"
	"github.com/klytics/prpulse/internal/roster"
)

type options struct {
	window      cmdwindow.Flags
	org         string
	outDir      string
	format      string
	concurrency int
	noAI        bool
	exclude     []string
}

// result is the --json payload.
type result struct {
	Report *metrics.OrgReport `json:"report"`
	Files  []string           `json:"files"`
}

// NewCommand creates the "report" command.
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "report <roster.csv|roster.xlsx>",
		Short: "Report PR and commit metrics for a roster of users",
		Long: `Fetch pull requests and commits for every user in the roster and report
per-user and organization-wide metrics.

The roster is a CSV, text or XLSX file. A "username" header column is used
when present (with an optional "email" column for AI usage lookups);
otherwise every non-empty cell is a username.

Previous report files in the output directory are removed before writing.

Example:
  prpulse report team.csv --org acme
  prpulse report team.xlsx --org acme --weeks 4 --format csv,xlsx -o reports/
  prpulse report team.csv --since 2024-01-01 --until 2024-03-31 --no-ai --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], &opts)
		},
	}

	opts.window.Register(cmd)
	cmd.Flags().StringVar(&opts.org, "org", "", "GitHub organization (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Comma-separated file formats: csv, xlsx, json")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "Users fetched in parallel (default from config)")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "Skip AI usage lookups")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Usernames to leave out (repeatable)")

	return cmd
}

func run(cmd *cobra.Command, rosterPath string, opts *options) error {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return output.UserError(err)
	}
	opts.apply(cmd, cfg)
	if !cfg.Output.Color {
		color.NoColor = true
	}

	formats := config.SplitFormats(cfg.Output.Format)
	if len(formats) == 0 {
		return output.UserError(errors.New("no output format; use --format csv, xlsx or json"))
	}
	for _, f := range formats {
		if render.Files(f) == nil {
			return output.UserError(fmt.Errorf("unknown output format %q (supported: csv, xlsx, json)", f))
		}
	}

	token, err := cfg.Token()
	if err != nil {
		return output.UserError(err)
	}
	if cfg.Org == "" {
		return output.UserError(errors.New("no organization configured; use --org or run: prpulse config set org <name>"))
	}

	w, err := opts.window.FromConfig(time.Now(), cfg)
	if err != nil {
		return output.UserError(err)
	}

	log := logging.New(os.Stderr, verbose, jsonFlag)

	members, err := roster.Load(rosterPath)
	if err != nil && !errors.Is(err, roster.ErrEmptyRoster) {
		return output.UserError(err)
	}
	if err != nil {
		log.Warn("roster is empty; the report will have no users", "roster", rosterPath)
	}
	if excluded := roster.Exclude(members, cfg.Report.ExcludeUsers); len(excluded) != len(members) {
		log.Info("excluded users", "count", len(members)-len(excluded))
		members = excluded
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	gh, err := ghsource.NewClient(ctx, ghsource.Options{
		Token:       token,
		BaseURL:     cfg.GitHub.BaseURL,
		Org:         cfg.Org,
		MaxRateWait: cfg.GitHub.MaxRateWait,
		Logger:      log,
	})
	if err != nil {
		return output.UserError(err)
	}

	runner := &collect.Runner{
		Org:         cfg.Org,
		PRs:         gh,
		Commits:     gh,
		Concurrency: cfg.Report.Concurrency,
		Logger:      log,
		Bar:         progress.New("Fetching", len(members)),
	}
	if !opts.noAI {
		runner.AI = aiusage.New(aiusage.Options{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Logger:  log,
		})
	}

	log.Info("building report", "org", cfg.Org, "window", w.String(), "users", len(members))
	report := runner.Run(ctx, members, w)

	files, writeErr := render.WriteFiles(cfg.Output.Dir, formats, report)
	if writeErr != nil {
		writeErr = output.SystemError(fmt.Errorf("could not write report files: %w", writeErr))
	}

	if jsonFlag {
		if writeErr != nil {
			return writeErr
		}
		if err := output.FprintJSON(cmd.OutOrStdout(), "report", result{Report: report, Files: files}); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		if err := render.Console(out, report); err != nil {
			return output.SystemError(err)
		}
		fmt.Fprintln(out)
		for _, f := range files {
			fmt.Fprintf(out, "Wrote %s\n", f)
		}
		if writeErr != nil {
			return writeErr
		}
	}

	if ctx.Err() != nil {
		return output.SystemError(fmt.Errorf("interrupted: users not yet fetched are reported as errors: %w", context.Cause(ctx)))
	}
	return nil
}

// apply copies the flags the user set onto cfg.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	o.window.Apply(cmd, cfg)
	if cmd.Flags().Changed("org") {
		cfg.Org = o.org
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = o.outDir
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = o.format
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Report.Concurrency = o.concurrency
	}
	if len(o.exclude) > 0 {
		cfg.Report.ExcludeUsers = append(cfg.Report.ExcludeUsers, o.exclude...)
	}
}
