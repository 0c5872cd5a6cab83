package metrics

import "testing"

func TestAggregateAIOK(t *testing.T) {
	status := AIStatus{
		Kind: AIStatusOK,
		Events: []AIUsageEvent{
			{SuggestedLines: 100, AcceptedLines: 40, Completions: 12, SessionID: "s1", SessionSeconds: 1800, File: "main.go"},
			{SuggestedLines: 50, AcceptedLines: 20, Edits: 3, SessionID: "s1", SessionSeconds: 3600, File: "main.go"},
			{SuggestedLines: 50, AcceptedLines: 0, Completions: 2, SessionID: "s2", SessionSeconds: 1800, File: "util.go"},
			{Edits: 1},
		},
	}

	m := AggregateAI(status)
	if m.Status != AIStatusOK {
		t.Errorf("status = %q", m.Status)
	}
	if m.SuggestedLines != 200 || m.AcceptedLines != 60 {
		t.Errorf("lines = %d/%d, want 200/60", m.SuggestedLines, m.AcceptedLines)
	}
	if m.Completions != 14 || m.Edits != 4 {
		t.Errorf("completions=%d edits=%d", m.Completions, m.Edits)
	}
	if m.Sessions != 2 {
		t.Errorf("sessions = %d, want 2", m.Sessions)
	}
	// s1 longest 3600s + s2 1800s
	if m.SessionHours != 1.5 {
		t.Errorf("session hours = %v, want 1.5", m.SessionHours)
	}
	if m.FilesEdited != 2 {
		t.Errorf("files = %d, want 2", m.FilesEdited)
	}
	if m.ChatAcceptanceRate != 30 {
		t.Errorf("acceptance rate = %v, want 30", m.ChatAcceptanceRate)
	}
	if !m.Active() {
		t.Error("expected active")
	}
}

func TestAggregateAIDegraded(t *testing.T) {
	for _, kind := range []AIStatusKind{AIStatusNoAPIKey, AIStatusUserNotFound, AIStatusUnavailable} {
		m := AggregateAI(AIStatus{
			Kind:   kind,
			Reason: "reason for " + string(kind),
			Events: []AIUsageEvent{{SuggestedLines: 10}},
		})
		if m.Status != kind {
			t.Errorf("status = %q, want %q", m.Status, kind)
		}
		if m.Reason == "" {
			t.Errorf("%s: reason should be kept", kind)
		}
		if m.SuggestedLines != 0 || m.Active() {
			t.Errorf("%s: degraded status must be all zero", kind)
		}
	}
}

func TestAggregateAIMissingKind(t *testing.T) {
	m := AggregateAI(AIStatus{})
	if m.Status != AIStatusUnavailable {
		t.Errorf("status = %q, want unavailable", m.Status)
	}
}

func TestAggregateAINoActivity(t *testing.T) {
	m := AggregateAI(AIStatus{Kind: AIStatusOK})
	if m.Active() {
		t.Error("ok status with no events is not active")
	}
	if m.ChatAcceptanceRate != 0 {
		t.Errorf("acceptance rate = %v, want 0", m.ChatAcceptanceRate)
	}
}
