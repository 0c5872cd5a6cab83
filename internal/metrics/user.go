package metrics

import "time"

// UserInput is everything fetched for one roster user. A non-nil Err means
// the fetch failed and the user is reported as an error row.
type UserInput struct {
	Username string
	PRs      []PRRecord
	Commits  []time.Time
	AI       *AIMetrics
	Err      error
}

// UserMetrics is the derived record for one user. When Error is set every
// numeric field is zero.
type UserMetrics struct {
	Username              string     `json:"username"`
	Created               int        `json:"total_created"`
	Merged                int        `json:"total_merged"`
	Open                  int        `json:"total_open"`
	Abandoned             int        `json:"total_abandoned"`
	MergeRate             float64    `json:"merge_rate"`
	AbandonmentRate       float64    `json:"abandonment_rate"`
	AverageMergeTimeHours float64    `json:"average_merge_time_hours"`
	AverageLinesChanged   float64    `json:"average_lines_changed"`
	TotalLinesAdded       int        `json:"total_lines_added"`
	TotalLinesDeleted     int        `json:"total_lines_deleted"`
	CodingDays            int        `json:"coding_days"`
	WeeklyCodingDays      []int      `json:"weekly_coding_days,omitempty"`
	TotalCommits          int        `json:"total_commits"`
	AI                    *AIMetrics `json:"ai_metrics,omitempty"`
	Error                 string     `json:"error,omitempty"`
	PRs                   []PRDetail `json:"prs,omitempty"`

	// Anomalies counts input records that were clamped or dropped.
	Anomalies int `json:"-"`

	mergeTimes   []float64
	linesChanged []float64
}

// Failed reports whether the user's fetch failed.
func (u UserMetrics) Failed() bool {
	return u.Error != ""
}

// BuildUser aggregates one user's pull requests and commits over w.
func BuildUser(in UserInput, w Window) UserMetrics {
	um := UserMetrics{Username: in.Username}
	if in.Err != nil {
		um.Error = in.Err.Error()
		return um
	}

	for _, raw := range in.PRs {
		pr, problems, ok := sanitize(raw)
		um.Anomalies += problems
		if !ok {
			continue
		}

		um.Created++
		switch pr.State {
		case StateMerged:
			um.Merged++
		case StateOpen:
			um.Open++
		case StateClosed:
			um.Abandoned++
		}

		if h, ok := pr.MergeTimeHours(); ok {
			um.mergeTimes = append(um.mergeTimes, h)
		}
		um.TotalLinesAdded += pr.LinesAdded
		um.TotalLinesDeleted += pr.LinesDeleted
		um.linesChanged = append(um.linesChanged, float64(pr.LinesAdded+pr.LinesDeleted))
		um.PRs = append(um.PRs, detailOf(pr))
	}

	um.MergeRate = SafeRate(float64(um.Merged), float64(um.Created))
	um.AbandonmentRate = SafeRate(float64(um.Abandoned), float64(um.Created))
	um.AverageMergeTimeHours = SafeAverage(um.mergeTimes)
	um.AverageLinesChanged = SafeAverage(um.linesChanged)

	um.WeeklyCodingDays, um.CodingDays = CodingDays(in.Commits, w)
	um.TotalCommits = len(in.Commits)

	if in.AI != nil {
		ai := *in.AI
		um.AI = &ai
	}
	return um
}
