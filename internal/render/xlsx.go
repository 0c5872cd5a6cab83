package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/prpulse/internal/metrics"
)

type sheet struct {
	name string
	rows [][]interface{}
}

// WriteXLSX writes the report as a workbook with Summary, Details and
// Overall sheets. Counts and rates are stored as numbers.
func WriteXLSX(w io.Writer, r *metrics.OrgReport) error {
	f, err := workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func workbook(r *metrics.OrgReport) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not create header style: %w", err)
	}

	sheets := []sheet{summarySheet(r), detailsSheet(r), overallSheet(r)}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("could not rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not create sheet %q: %w", s.name, err)
		}

		for rowIdx, row := range s.rows {
			for colIdx, cell := range row {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("invalid cell coordinates: %w", err)
				}
				if err := f.SetCellValue(s.name, cellName, cell); err != nil {
					f.Close()
					return nil, fmt.Errorf("could not set cell %s!%s: %w", s.name, cellName, err)
				}
			}
		}
		if err := f.SetRowStyle(s.name, 1, 1, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not style header of %s: %w", s.name, err)
		}
	}
	return f, nil
}

func cells(cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func summarySheet(r *metrics.OrgReport) sheet {
	rows := [][]interface{}{cells(summaryHeader)}
	for _, u := range r.Users {
		row := []interface{}{
			u.Username, u.Created, u.Merged, u.Open, u.Abandoned,
			u.MergeRate, u.AbandonmentRate, u.AverageMergeTimeHours, u.AverageLinesChanged,
			u.TotalLinesAdded, u.TotalLinesDeleted, u.CodingDays, u.TotalCommits,
		}
		if a := u.AI; a != nil {
			row = append(row, string(a.Status), a.SuggestedLines, a.AcceptedLines, a.ChatAcceptanceRate,
				a.Completions, a.Edits, a.Sessions, a.SessionHours, a.FilesEdited)
		} else {
			row = append(row, nil, nil, nil, nil, nil, nil, nil, nil, nil)
		}
		rows = append(rows, append(row, u.Error))
	}
	return sheet{name: "Summary", rows: rows}
}

func detailsSheet(r *metrics.OrgReport) sheet {
	rows := [][]interface{}{cells(detailsHeader)}
	for _, u := range r.Users {
		switch {
		case u.Failed():
			rows = append(rows, cells(placeholder(u.Username, "Error", u.Error)))
		case len(u.PRs) == 0:
			rows = append(rows, cells(placeholder(u.Username, "No PRs", "No pull requests found")))
		}
		for _, d := range u.PRs {
			var closed, hours interface{}
			if d.ClosedAt != nil {
				closed = timestamp(*d.ClosedAt, r.Window.Location)
			}
			if d.MergeTimeHours != nil {
				hours = *d.MergeTimeHours
			}
			rows = append(rows, []interface{}{
				u.Username, d.Number, d.Title, string(d.State),
				timestamp(d.CreatedAt, r.Window.Location), closed, hours,
				d.LinesAdded, d.LinesDeleted, d.LinesChanged, d.Repository, d.URL,
			})
		}
	}
	return sheet{name: "Details", rows: rows}
}

func overallSheet(r *metrics.OrgReport) sheet {
	s := r.Overall
	rows := [][]interface{}{
		{"metric", "value"},
		{"org", r.Org},
		{"window_start", r.Window.StartDate()},
		{"window_end", r.Window.EndDate()},
		{"users_processed", s.UsersProcessed},
		{"error_count", s.ErrorCount},
		{"total_created", s.Created},
		{"total_merged", s.Merged},
		{"total_open", s.Open},
		{"total_abandoned", s.Abandoned},
		{"merge_rate", s.MergeRate},
		{"abandonment_rate", s.AbandonmentRate},
		{"average_merge_time_hours", s.AverageMergeTimeHours},
		{"p90_merge_time_hours", s.P90MergeTimeHours},
		{"p95_merge_time_hours", s.P95MergeTimeHours},
		{"average_lines_changed", s.AverageLinesChanged},
		{"total_lines_added", s.TotalLinesAdded},
		{"total_lines_deleted", s.TotalLinesDeleted},
		{"total_commits", s.TotalCommits},
		{"total_coding_days", s.TotalCodingDays},
		{"p90_coding_days", s.P90CodingDays},
		{"p95_coding_days", s.P95CodingDays},
		{"ai_users", s.AI.Users},
		{"ai_active_users", s.AI.ActiveUsers},
		{"ai_suggested_lines", s.AI.SuggestedLines},
		{"ai_accepted_lines", s.AI.AcceptedLines},
		{"ai_acceptance_rate", s.AI.AcceptanceRate},
		{"ai_avg_accepted_lines", s.AI.AvgAcceptedLines},
		{"ai_avg_completions", s.AI.AvgCompletions},
		{"ai_avg_edits", s.AI.AvgEdits},
		{"ai_avg_sessions", s.AI.AvgSessions},
		{"ai_avg_session_hours", s.AI.AvgSessionHours},
		{"ai_avg_files_edited", s.AI.AvgFilesEdited},
	}
	return sheet{name: "Overall", rows: rows}
}
