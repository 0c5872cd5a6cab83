package metrics

import "github.com/samber/lo"

// AIStatusKind tags how AI-usage data was obtained for a user.
type AIStatusKind string

const (
	AIStatusOK           AIStatusKind = "ok"
	AIStatusNoAPIKey     AIStatusKind = "no_api_key"
	AIStatusUserNotFound AIStatusKind = "user_not_found"
	AIStatusUnavailable  AIStatusKind = "unavailable"
)

// AIUsageEvent is one raw usage record from an AI-assistant usage source.
type AIUsageEvent struct {
	SuggestedLines int    `json:"suggested_lines"`
	AcceptedLines  int    `json:"accepted_lines"`
	Completions    int    `json:"completions"`
	Edits          int    `json:"edits"`
	SessionID      string `json:"session_id"`
	SessionSeconds int    `json:"session_seconds"`
	File           string `json:"file,omitempty"`
}

// AIStatus is what an AI-usage source returns for a user: a tag, an
// optional reason and, for AIStatusOK, the events in the window.
type AIStatus struct {
	Kind   AIStatusKind
	Reason string
	Events []AIUsageEvent
}

// AIMetrics is the per-user AI-usage tally.
type AIMetrics struct {
	Status             AIStatusKind `json:"status"`
	Reason             string       `json:"reason,omitempty"`
	SuggestedLines     int          `json:"suggested_lines"`
	AcceptedLines      int          `json:"accepted_lines"`
	Completions        int          `json:"completions"`
	Edits              int          `json:"edits"`
	Sessions           int          `json:"sessions"`
	SessionHours       float64      `json:"session_hours"`
	FilesEdited        int          `json:"files_edited"`
	ChatAcceptanceRate float64      `json:"chat_acceptance_rate"`
}

// Active reports whether the user has usable AI data with any activity.
func (m AIMetrics) Active() bool {
	if m.Status != AIStatusOK {
		return false
	}
	return m.SuggestedLines > 0 || m.AcceptedLines > 0 || m.Completions > 0 ||
		m.Edits > 0 || m.Sessions > 0 || m.SessionHours > 0 || m.FilesEdited > 0
}

// AggregateAI tallies a user's AI-usage status. Degraded statuses produce a
// zero tally carrying the reason.
func AggregateAI(status AIStatus) AIMetrics {
	m := AIMetrics{Status: status.Kind, Reason: status.Reason}
	if status.Kind != AIStatusOK {
		if m.Status == "" {
			m.Status = AIStatusUnavailable
		}
		return m
	}

	longest := make(map[string]int)
	files := make(map[string]struct{})
	for _, e := range status.Events {
		m.SuggestedLines += max(e.SuggestedLines, 0)
		m.AcceptedLines += max(e.AcceptedLines, 0)
		m.Completions += max(e.Completions, 0)
		m.Edits += max(e.Edits, 0)
		if e.SessionID != "" {
			longest[e.SessionID] = max(longest[e.SessionID], e.SessionSeconds, 0)
		}
		if e.File != "" {
			files[e.File] = struct{}{}
		}
	}

	m.Sessions = len(longest)
	m.SessionHours = float64(lo.Sum(lo.Values(longest))) / 3600
	m.FilesEdited = len(files)
	m.ChatAcceptanceRate = SafeRate(float64(m.AcceptedLines), float64(m.SuggestedLines))
	return m
}
