package render

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/klytics/prpulse/internal/metrics"
)

// NotAvailable fills detail columns that have no value.
const NotAvailable = "N/A"

var summaryHeader = []string{
	"username", "total_created", "total_merged", "total_open", "total_abandoned",
	"merge_rate", "abandonment_rate", "average_merge_time_hours", "average_lines_changed",
	"total_lines_added", "total_lines_deleted", "coding_days", "total_commits",
	"ai_status", "ai_suggested_lines", "ai_accepted_lines", "ai_chat_acceptance_rate",
	"ai_completions", "ai_edits", "ai_sessions", "ai_session_hours", "ai_files_edited",
	"error",
}

var detailsHeader = []string{
	"username", "pr_number", "title", "state", "created_at", "closed_at",
	"merge_time_hours", "lines_added", "lines_deleted", "lines_changed",
	"repository", "url",
}

// WriteSummaryCSV writes one row per user.
func WriteSummaryCSV(w io.Writer, r *metrics.OrgReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, u := range r.Users {
		if err := cw.Write(summaryRow(u)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetailsCSV writes one row per PR. Users without PRs and users that
// failed get a single placeholder row so every roster member appears.
func WriteDetailsCSV(w io.Writer, r *metrics.OrgReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailsHeader); err != nil {
		return err
	}
	for _, row := range detailRows(r) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryRow(u metrics.UserMetrics) []string {
	row := []string{
		u.Username,
		strconv.Itoa(u.Created),
		strconv.Itoa(u.Merged),
		strconv.Itoa(u.Open),
		strconv.Itoa(u.Abandoned),
		num(u.MergeRate),
		num(u.AbandonmentRate),
		num(u.AverageMergeTimeHours),
		num(u.AverageLinesChanged),
		strconv.Itoa(u.TotalLinesAdded),
		strconv.Itoa(u.TotalLinesDeleted),
		strconv.Itoa(u.CodingDays),
		strconv.Itoa(u.TotalCommits),
	}
	if u.AI == nil {
		row = append(row, "", "", "", "", "", "", "", "", "")
	} else {
		a := u.AI
		row = append(row,
			string(a.Status),
			strconv.Itoa(a.SuggestedLines),
			strconv.Itoa(a.AcceptedLines),
			num(a.ChatAcceptanceRate),
			strconv.Itoa(a.Completions),
			strconv.Itoa(a.Edits),
			strconv.Itoa(a.Sessions),
			num(a.SessionHours),
			strconv.Itoa(a.FilesEdited),
		)
	}
	return append(row, u.Error)
}

func detailRows(r *metrics.OrgReport) [][]string {
	var rows [][]string
	for _, u := range r.Users {
		switch {
		case u.Failed():
			rows = append(rows, placeholder(u.Username, "Error", u.Error))
		case len(u.PRs) == 0:
			rows = append(rows, placeholder(u.Username, "No PRs", "No pull requests found"))
		default:
			for _, d := range u.PRs {
				rows = append(rows, detailRow(u.Username, d, r.Window.Location))
			}
		}
	}
	return rows
}

func detailRow(user string, d metrics.PRDetail, loc *time.Location) []string {
	closed, hours := "", ""
	if d.ClosedAt != nil {
		closed = timestamp(*d.ClosedAt, loc)
	}
	if d.MergeTimeHours != nil {
		hours = num(*d.MergeTimeHours)
	}
	return []string{
		user,
		strconv.Itoa(d.Number),
		d.Title,
		string(d.State),
		timestamp(d.CreatedAt, loc),
		closed,
		hours,
		strconv.Itoa(d.LinesAdded),
		strconv.Itoa(d.LinesDeleted),
		strconv.Itoa(d.LinesChanged),
		d.Repository,
		d.URL,
	}
}

func placeholder(user, number, title string) []string {
	row := []string{user, number, title}
	for len(row) < len(detailsHeader) {
		row = append(row, NotAvailable)
	}
	return row
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339)
}
