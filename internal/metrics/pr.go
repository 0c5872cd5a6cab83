package metrics

import (
	"strings"
	"time"
)

// PRState is the final state of a pull request within the window.
type PRState string

const (
	StateOpen   PRState = "open"
	StateMerged PRState = "merged"
	// StateClosed is a pull request closed without being merged (abandoned).
	StateClosed PRState = "closed"
)

// ParseState maps a state name to a PRState, case-insensitively.
func ParseState(s string) (PRState, bool) {
	switch PRState(strings.ToLower(strings.TrimSpace(s))) {
	case StateOpen:
		return StateOpen, true
	case StateMerged:
		return StateMerged, true
	case StateClosed:
		return StateClosed, true
	}
	return "", false
}

// PRRecord is one pull request as supplied by a PR source. ClosedAt holds
// the merge time for merged pull requests and the close time for abandoned
// ones.
type PRRecord struct {
	Number       int
	State        PRState
	CreatedAt    time.Time
	ClosedAt     *time.Time
	LinesAdded   int
	LinesDeleted int
	Repository   string
	Title        string
	URL          string
}

// MergeTimeHours returns the hours from creation to merge. ok is false for
// pull requests that are not merged or carry an unusable close time.
func (p PRRecord) MergeTimeHours() (hours float64, ok bool) {
	if p.State != StateMerged || p.ClosedAt == nil || p.ClosedAt.Before(p.CreatedAt) {
		return 0, false
	}
	return p.ClosedAt.Sub(p.CreatedAt).Hours(), true
}

// PRDetail is the per-PR row handed to detail renderers.
type PRDetail struct {
	Number         int        `json:"pr_number"`
	Title          string     `json:"title"`
	State          PRState    `json:"state"`
	CreatedAt      time.Time  `json:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	MergeTimeHours *float64   `json:"merge_time_hours,omitempty"`
	LinesAdded     int        `json:"lines_added"`
	LinesDeleted   int        `json:"lines_deleted"`
	LinesChanged   int        `json:"lines_changed"`
	Repository     string     `json:"repository"`
	URL            string     `json:"url"`
}

// sanitize applies the malformed-input policy: negative line counts are
// clamped to zero, unknown states drop the record, and a merged or closed
// record whose close time is missing or precedes creation is kept but
// flagged. It returns the cleaned record, the number of problems found and
// whether the record should be counted at all.
func sanitize(p PRRecord) (PRRecord, int, bool) {
	state, known := ParseState(string(p.State))
	if !known {
		return p, 1, false
	}
	p.State = state
	problems := 0
	if p.LinesAdded < 0 {
		p.LinesAdded = 0
		problems++
	}
	if p.LinesDeleted < 0 {
		p.LinesDeleted = 0
		problems++
	}
	if p.State != StateOpen && (p.ClosedAt == nil || p.ClosedAt.Before(p.CreatedAt)) {
		problems++
	}
	return p, problems, true
}

func detailOf(p PRRecord) PRDetail {
	d := PRDetail{
		Number:       p.Number,
		Title:        p.Title,
		State:        p.State,
		CreatedAt:    p.CreatedAt,
		ClosedAt:     p.ClosedAt,
		LinesAdded:   p.LinesAdded,
		LinesDeleted: p.LinesDeleted,
		LinesChanged: p.LinesAdded + p.LinesDeleted,
		Repository:   p.Repository,
		URL:          p.URL,
	}
	if h, ok := p.MergeTimeHours(); ok {
		d.MergeTimeHours = &h
	}
	return d
}
