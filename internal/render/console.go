// Package render formats an OrgReport for people and spreadsheets. It only
// formats; every figure comes rounded from the metrics package.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/klytics/prpulse/internal/metrics"
)

// Console writes the human-readable report: a per-user table, error lines
// for users that could not be fetched, an AI table when any user has AI
// data, and the overall block.
func Console(w io.Writer, r *metrics.OrgReport) error {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	weeks := len(r.Window.Weeks())
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("PR METRICS REPORT  %s  %s (%d %s)", r.Org, r.Window, weeks, plural(weeks, "week"))))
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	ok := lo.Filter(r.Users, func(u metrics.UserMetrics, _ int) bool { return !u.Failed() })
	failed := lo.Filter(r.Users, func(u metrics.UserMetrics, _ int) bool { return u.Failed() })

	if len(ok) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "USER\tCREATED\tMERGED\tOPEN\tABANDONED\tMERGE %%\tABANDON %%\tAVG MERGE H\tAVG LINES\t+LINES\t-LINES\tCODING DAYS\tWEEKLY\tCOMMITS\n")
		for _, u := range ok {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%d\t%d\t%s\t%d\n",
				u.Username, u.Created, u.Merged, u.Open, u.Abandoned,
				u.MergeRate, u.AbandonmentRate, u.AverageMergeTimeHours, u.AverageLinesChanged,
				u.TotalLinesAdded, u.TotalLinesDeleted, u.CodingDays, weekly(u.WeeklyCodingDays), u.TotalCommits)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, "No users processed")
	}

	if len(failed) > 0 {
		fmt.Fprintln(w)
		for _, u := range failed {
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), u.Username, u.Error)
		}
	}

	withAI := lo.Filter(ok, func(u metrics.UserMetrics, _ int) bool { return u.AI != nil })
	if len(withAI) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, bold("AI USAGE"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "USER\tSTATUS\tSUGGESTED\tACCEPTED\tACCEPT %%\tCOMPLETIONS\tEDITS\tSESSIONS\tHOURS\tFILES\n")
		for _, u := range withAI {
			a := u.AI
			if a.Status != metrics.AIStatusOK {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\t-\t-\n", u.Username, a.Status)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\t%d\t%d\t%d\t%.2f\t%d\n",
				u.Username, a.Status, a.SuggestedLines, a.AcceptedLines, a.ChatAcceptanceRate,
				a.Completions, a.Edits, a.Sessions, a.SessionHours, a.FilesEdited)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, u := range withAI {
			if u.AI.Status != metrics.AIStatusOK && u.AI.Reason != "" {
				fmt.Fprintf(w, "%s %s: %s\n", yellow("!"), u.Username, u.AI.Reason)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("OVERALL"))
	return overall(w, r.Overall)
}

func overall(w io.Writer, s metrics.OverallStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, format string, args ...interface{}) {
		fmt.Fprintf(tw, "  %s\t"+format+"\n", append([]interface{}{label}, args...)...)
	}
	row("Users processed", "%d", s.UsersProcessed)
	row("Users with errors", "%d", s.ErrorCount)
	row("PRs created", "%d", s.Created)
	row("PRs merged", "%d", s.Merged)
	row("PRs open", "%d", s.Open)
	row("PRs abandoned", "%d", s.Abandoned)
	row("Merge rate", "%.2f%%", s.MergeRate)
	row("Abandonment rate", "%.2f%%", s.AbandonmentRate)
	row("Merge time (avg / p90 / p95)", "%.2f / %.2f / %.2f hours", s.AverageMergeTimeHours, s.P90MergeTimeHours, s.P95MergeTimeHours)
	row("Average lines changed", "%.2f", s.AverageLinesChanged)
	row("Lines added / deleted", "%d / %d", s.TotalLinesAdded, s.TotalLinesDeleted)
	row("Commits", "%d", s.TotalCommits)
	row("Coding days (total / p90 / p95)", "%d / %.2f / %.2f", s.TotalCodingDays, s.P90CodingDays, s.P95CodingDays)
	if s.AI.Users > 0 {
		row("AI users (active / with data)", "%d / %d", s.AI.ActiveUsers, s.AI.Users)
		row("AI lines (accepted / suggested)", "%d / %d (%.2f%%)", s.AI.AcceptedLines, s.AI.SuggestedLines, s.AI.AcceptanceRate)
		row("AI per active user", "%.2f accepted lines, %.2f sessions, %.2f hours", s.AI.AvgAcceptedLines, s.AI.AvgSessions, s.AI.AvgSessionHours)
	}
	return tw.Flush()
}

func weekly(days []int) string {
	if len(days) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(days, func(d int, _ int) string { return strconv.Itoa(d) }), "/")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
