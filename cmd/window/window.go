// Package window provides the "prpulse window" command and the window
// resolution shared with "prpulse report".
package window

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/prpulse/internal/config"
	"github.com/klytics/prpulse/internal/metrics"
	"github.com/klytics/prpulse/internal/output"
)

// Flags are the window selection flags shared by report and window.
type Flags struct {
	Weeks    int
	Since    string
	Until    string
	Timezone string
}

// Register adds the window flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.Weeks, "weeks", "w", 1, "Number of complete Monday-Sunday weeks to report")
	cmd.Flags().StringVar(&f.Since, "since", "", "First day of the window (YYYY-MM-DD, moved back to Monday); overrides --weeks")
	cmd.Flags().StringVar(&f.Until, "until", "", "Last day of the window (YYYY-MM-DD, moved forward to Sunday); defaults to the end of last week")
	cmd.Flags().StringVar(&f.Timezone, "timezone", "", "IANA timezone that decides which day a timestamp falls on")
}

// Apply copies the flags the user set onto cfg.
func (f *Flags) Apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("weeks") {
		cfg.Report.Weeks = f.Weeks
	}
	if cmd.Flags().Changed("timezone") {
		cfg.Report.Timezone = f.Timezone
	}
}

// Resolve picks the report window. Without dates it is the last weeks
// complete weeks before now; --since alone runs to the end of last week.
func Resolve(now time.Time, weeks int, since, until string, loc *time.Location) (metrics.Window, error) {
	if since == "" && until == "" {
		if weeks < 0 {
			return metrics.Window{}, fmt.Errorf("--weeks must not be negative (got %d)", weeks)
		}
		return metrics.TrailingWeeks(now, weeks, loc), nil
	}
	if since == "" {
		return metrics.Window{}, errors.New("--until requires --since")
	}
	if until == "" {
		until = metrics.TrailingWeeks(now, 1, loc).EndDate()
	}
	return metrics.ParseWindow(since, until, loc)
}

// FromConfig resolves the window for cfg and the date flags.
func (f *Flags) FromConfig(now time.Time, cfg *config.Config) (metrics.Window, error) {
	loc, err := cfg.Location()
	if err != nil {
		return metrics.Window{}, err
	}
	return Resolve(now, cfg.Report.Weeks, f.Since, f.Until, loc)
}

type windowJSON struct {
	Window   metrics.Window   `json:"window"`
	Timezone string           `json:"timezone"`
	Segments []metrics.Window `json:"segments"`
}

// NewCommand returns the window command.
func NewCommand() *cobra.Command {
	var flags Flags
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show the date window a report would cover",
		Long: `Show the date window and its week segments.

Coding days are counted per segment. Segments start on the window's first
day; the last one may be shorter than seven days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return output.UserError(err)
			}
			flags.Apply(cmd, cfg)

			w, err := flags.FromConfig(time.Now(), cfg)
			if err != nil {
				return output.UserError(err)
			}

			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "window", windowJSON{
					Window:   w,
					Timezone: w.Location.String(),
					Segments: w.Weeks(),
				})
			}

			out := cmd.OutOrStdout()
			if w.Empty() {
				fmt.Fprintf(out, "Empty window (0 weeks) ending %s\n", w.EndDate())
				return nil
			}
			fmt.Fprintf(out, "Window:   %s (%s)\n", w, w.Location)
			fmt.Fprintf(out, "Days:     %d\n", w.Days())
			fmt.Fprintf(out, "Segments: %d\n\n", len(w.Weeks()))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SEGMENT\tSTART\tEND\tDAYS")
			for i, seg := range w.Weeks() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, seg.StartDate(), seg.EndDate(), seg.Days())
			}
			return tw.Flush()
		},
	}
	flags.Register(cmd)
	return cmd
}
