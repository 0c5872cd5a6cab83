package metrics

import "github.com/samber/lo"

// OverallStats is the organization-wide rollup of all user records.
type OverallStats struct {
	UsersProcessed        int       `json:"users_processed"`
	ErrorCount            int       `json:"error_count"`
	Created               int       `json:"total_created"`
	Merged                int       `json:"total_merged"`
	Open                  int       `json:"total_open"`
	Abandoned             int       `json:"total_abandoned"`
	MergeRate             float64   `json:"merge_rate"`
	AbandonmentRate       float64   `json:"abandonment_rate"`
	AverageMergeTimeHours float64   `json:"average_merge_time_hours"`
	P90MergeTimeHours     float64   `json:"p90_merge_time_hours"`
	P95MergeTimeHours     float64   `json:"p95_merge_time_hours"`
	AverageLinesChanged   float64   `json:"average_lines_changed"`
	TotalLinesAdded       int       `json:"total_lines_added"`
	TotalLinesDeleted     int       `json:"total_lines_deleted"`
	TotalCommits          int       `json:"total_commits"`
	TotalCodingDays       int       `json:"total_coding_days"`
	P90CodingDays         float64   `json:"p90_coding_days"`
	P95CodingDays         float64   `json:"p95_coding_days"`
	AI                    AIOverall `json:"ai"`
}

// AIOverall sums AI usage over users whose AI status is ok. Averages are
// per active user.
type AIOverall struct {
	Users            int     `json:"users"`
	ActiveUsers      int     `json:"active_users"`
	SuggestedLines   int     `json:"suggested_lines"`
	AcceptedLines    int     `json:"accepted_lines"`
	Completions      int     `json:"completions"`
	Edits            int     `json:"edits"`
	Sessions         int     `json:"sessions"`
	SessionHours     float64 `json:"session_hours"`
	FilesEdited      int     `json:"files_edited"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	AvgAcceptedLines float64 `json:"avg_accepted_lines"`
	AvgCompletions   float64 `json:"avg_completions"`
	AvgEdits         float64 `json:"avg_edits"`
	AvgSessions      float64 `json:"avg_sessions"`
	AvgSessionHours  float64 `json:"avg_session_hours"`
	AvgFilesEdited   float64 `json:"avg_files_edited"`
}

// Rollup computes organization-wide statistics. Users with an error are
// counted in ErrorCount and excluded from everything else. Merge-time and
// lines-changed averages are weighted by pull request; coding-day
// percentiles take one sample per user.
func Rollup(users []UserMetrics) OverallStats {
	ok := lo.Filter(users, func(u UserMetrics, _ int) bool { return !u.Failed() })

	s := OverallStats{
		UsersProcessed: len(ok),
		ErrorCount:     len(users) - len(ok),
	}

	for _, u := range ok {
		s.Created += u.Created
		s.Merged += u.Merged
		s.Open += u.Open
		s.Abandoned += u.Abandoned
		s.TotalLinesAdded += u.TotalLinesAdded
		s.TotalLinesDeleted += u.TotalLinesDeleted
		s.TotalCommits += u.TotalCommits
		s.TotalCodingDays += u.CodingDays
	}

	s.MergeRate = SafeRate(float64(s.Merged), float64(s.Created))
	s.AbandonmentRate = SafeRate(float64(s.Abandoned), float64(s.Created))

	mergeTimes := lo.FlatMap(ok, func(u UserMetrics, _ int) []float64 { return u.mergeTimes })
	s.AverageMergeTimeHours = SafeAverage(mergeTimes)
	s.P90MergeTimeHours = Percentile(mergeTimes, 90)
	s.P95MergeTimeHours = Percentile(mergeTimes, 95)

	linesChanged := lo.FlatMap(ok, func(u UserMetrics, _ int) []float64 { return u.linesChanged })
	s.AverageLinesChanged = SafeAverage(linesChanged)

	codingDays := lo.Map(ok, func(u UserMetrics, _ int) float64 { return float64(u.CodingDays) })
	s.P90CodingDays = Percentile(codingDays, 90)
	s.P95CodingDays = Percentile(codingDays, 95)

	s.AI = rollupAI(ok)
	return s
}

func rollupAI(users []UserMetrics) AIOverall {
	var a AIOverall
	for _, u := range users {
		if u.AI == nil || u.AI.Status != AIStatusOK {
			continue
		}
		a.Users++
		if u.AI.Active() {
			a.ActiveUsers++
		}
		a.SuggestedLines += u.AI.SuggestedLines
		a.AcceptedLines += u.AI.AcceptedLines
		a.Completions += u.AI.Completions
		a.Edits += u.AI.Edits
		a.Sessions += u.AI.Sessions
		a.SessionHours += u.AI.SessionHours
		a.FilesEdited += u.AI.FilesEdited
	}

	a.AcceptanceRate = SafeRate(float64(a.AcceptedLines), float64(a.SuggestedLines))
	if a.ActiveUsers > 0 {
		n := float64(a.ActiveUsers)
		a.AvgAcceptedLines = float64(a.AcceptedLines) / n
		a.AvgCompletions = float64(a.Completions) / n
		a.AvgEdits = float64(a.Edits) / n
		a.AvgSessions = float64(a.Sessions) / n
		a.AvgSessionHours = a.SessionHours / n
		a.AvgFilesEdited = float64(a.FilesEdited) / n
	}
	return a
}
