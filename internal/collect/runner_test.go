package collect

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klytics/prpulse/internal/logging"
	"github.com/klytics/prpulse/internal/metrics"
	"github.com/klytics/prpulse/internal/roster"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func week() metrics.Window {
	start := at("2024-01-01T00:00:00Z")
	return metrics.NewWindow(start, start.AddDate(0, 0, 6), time.UTC)
}

type fakePRs struct {
	prs   map[string][]metrics.PRRecord
	errs  map[string]error
	delay time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	orgs     []string
}

func (f *fakePRs) FetchPRs(ctx context.Context, user, org string, w metrics.Window) ([]metrics.PRRecord, error) {
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.orgs = append(f.orgs, org)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[user]; err != nil {
		return nil, err
	}
	return f.prs[user], nil
}

type fakeCommits map[string][]time.Time

func (f fakeCommits) FetchCommitDates(ctx context.Context, user string, w metrics.Window) ([]time.Time, error) {
	return f[user], nil
}

type fakeAI struct {
	statuses   map[string]metrics.AIStatus
	err        error
	identities []string
	mu         sync.Mutex
}

func (f *fakeAI) FetchAIUsage(ctx context.Context, identity string, w metrics.Window) (metrics.AIStatus, error) {
	f.mu.Lock()
	f.identities = append(f.identities, identity)
	f.mu.Unlock()
	if f.err != nil {
		return metrics.AIStatus{}, f.err
	}
	return f.statuses[identity], nil
}

func closedAt(s string) *time.Time {
	t := at(s)
	return &t
}

func TestRunScenario(t *testing.T) {
	prs := &fakePRs{
		prs: map[string][]metrics.PRRecord{
			"u1": {
				{State: metrics.StateMerged, CreatedAt: at("2024-01-01T09:00:00Z"), ClosedAt: closedAt("2024-01-01T11:00:00Z")},
				{State: metrics.StateMerged, CreatedAt: at("2024-01-02T09:00:00Z"), ClosedAt: closedAt("2024-01-02T13:00:00Z")},
				{State: metrics.StateClosed, CreatedAt: at("2024-01-03T09:00:00Z"), ClosedAt: closedAt("2024-01-04T09:00:00Z")},
			},
		},
		errs: map[string]error{"u2": errors.New("fetch failed")},
	}
	commits := fakeCommits{"u1": {at("2024-01-02T10:00:00Z"), at("2024-01-02T15:00:00Z"), at("2024-01-05T11:00:00Z")}}

	r := &Runner{
		Org:         "acme",
		PRs:         prs,
		Commits:     commits,
		Concurrency: 2,
		Now:         func() time.Time { return at("2024-01-08T06:00:00Z") },
	}
	report := r.Run(context.Background(), []roster.Member{{Username: "u1"}, {Username: "u2"}}, week())

	if report.Org != "acme" || !report.GeneratedAt.Equal(at("2024-01-08T06:00:00Z")) {
		t.Errorf("report header = %s %s", report.Org, report.GeneratedAt)
	}
	u1, u2 := report.Users[0], report.Users[1]
	if u1.Username != "u1" || u2.Username != "u2" {
		t.Fatalf("roster order lost: %s, %s", u1.Username, u2.Username)
	}
	if u1.MergeRate != 66.67 || u1.AbandonmentRate != 33.33 || u1.AverageMergeTimeHours != 3 || u1.CodingDays != 2 {
		t.Errorf("u1 = %+v", u1)
	}
	if u2.Error != "fetch failed" || u2.Created != 0 {
		t.Errorf("u2 = %+v", u2)
	}
	if report.Overall.Created != 3 || report.Overall.ErrorCount != 1 {
		t.Errorf("overall created=%d errors=%d", report.Overall.Created, report.Overall.ErrorCount)
	}
	for _, org := range prs.orgs {
		if org != "acme" {
			t.Errorf("PR source got org %q", org)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	prs := &fakePRs{delay: 20 * time.Millisecond}
	var members []roster.Member
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		members = append(members, roster.Member{Username: name})
	}

	r := &Runner{PRs: prs, Commits: fakeCommits{}, Concurrency: 3}
	report := r.Run(context.Background(), members, week())

	if prs.peak > 3 {
		t.Errorf("peak in-flight fetches = %d, want <= 3", prs.peak)
	}
	if len(report.Users) != len(members) {
		t.Fatalf("got %d users, want %d", len(report.Users), len(members))
	}
	for i, m := range members {
		if report.Users[i].Username != m.Username {
			t.Errorf("position %d = %s, want %s", i, report.Users[i].Username, m.Username)
		}
	}
}

func TestRunSequential(t *testing.T) {
	prs := &fakePRs{delay: time.Millisecond}
	r := &Runner{PRs: prs, Commits: fakeCommits{}, Concurrency: 1}
	r.Run(context.Background(), []roster.Member{{Username: "a"}, {Username: "b"}, {Username: "c"}}, week())
	if prs.peak != 1 {
		t.Errorf("sequential run had %d fetches in flight", prs.peak)
	}
}

func TestRunAI(t *testing.T) {
	ai := &fakeAI{statuses: map[string]metrics.AIStatus{
		"ann@example.com": {Kind: metrics.AIStatusOK, Events: []metrics.AIUsageEvent{{SuggestedLines: 10, AcceptedLines: 5}}},
		"ben":             {Kind: metrics.AIStatusUserNotFound, Reason: "no such user"},
	}}
	r := &Runner{PRs: &fakePRs{}, Commits: fakeCommits{}, AI: ai}
	report := r.Run(context.Background(), []roster.Member{
		{Username: "ann", Email: "ann@example.com"},
		{Username: "ben"},
	}, week())

	if got := report.Users[0].AI; got == nil || got.Status != metrics.AIStatusOK || got.ChatAcceptanceRate != 50 {
		t.Errorf("ann AI = %+v", got)
	}
	if got := report.Users[1].AI; got == nil || got.Status != metrics.AIStatusUserNotFound {
		t.Errorf("ben AI = %+v", got)
	}
	if ai.identities[0] != "ann@example.com" {
		t.Errorf("AI lookup should use the email, got %v", ai.identities)
	}
	if report.Overall.AI.Users != 1 || report.Overall.AI.ActiveUsers != 1 {
		t.Errorf("overall AI = %+v", report.Overall.AI)
	}
}

func TestRunAIErrorIsUnavailable(t *testing.T) {
	ai := &fakeAI{err: errors.New("connection refused")}
	r := &Runner{PRs: &fakePRs{}, Commits: fakeCommits{}, AI: ai}
	report := r.Run(context.Background(), []roster.Member{{Username: "ann"}}, week())

	u := report.Users[0]
	if u.Failed() {
		t.Errorf("an AI failure must not fail the user: %s", u.Error)
	}
	if u.AI == nil || u.AI.Status != metrics.AIStatusUnavailable || u.AI.Reason != "connection refused" {
		t.Errorf("AI = %+v", u.AI)
	}
}

func TestRunWithoutAISource(t *testing.T) {
	r := &Runner{PRs: &fakePRs{}, Commits: fakeCommits{}}
	report := r.Run(context.Background(), []roster.Member{{Username: "ann"}}, week())
	if report.Users[0].AI != nil {
		t.Error("no AI source should leave AI metrics unset")
	}
}

func TestRunCancelledKeepsUsers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	prs := &countingPRs{calls: &calls}
	r := &Runner{PRs: prs, Commits: fakeCommits{}, Concurrency: 2}
	report := r.Run(ctx, []roster.Member{{Username: "a"}, {Username: "b"}}, week())

	if len(report.Users) != 2 {
		t.Fatalf("cancelled run dropped users: %d", len(report.Users))
	}
	for _, u := range report.Users {
		if !strings.Contains(u.Error, "context canceled") {
			t.Errorf("%s error = %q", u.Username, u.Error)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("sources called %d times after cancel", calls.Load())
	}
	if report.Overall.ErrorCount != 2 {
		t.Errorf("error count = %d", report.Overall.ErrorCount)
	}
}

type countingPRs struct{ calls *atomic.Int32 }

func (c *countingPRs) FetchPRs(ctx context.Context, user, org string, w metrics.Window) ([]metrics.PRRecord, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestRunEmptyWindowSkipsFetch(t *testing.T) {
	var calls atomic.Int32
	r := &Runner{PRs: &countingPRs{calls: &calls}, Commits: fakeCommits{}}
	empty := metrics.TrailingWeeks(at("2024-01-10T00:00:00Z"), 0, time.UTC)
	report := r.Run(context.Background(), []roster.Member{{Username: "a"}}, empty)

	if calls.Load() != 0 {
		t.Error("empty window should not reach the sources")
	}
	if report.Users[0].Failed() || report.Overall.UsersProcessed != 1 {
		t.Errorf("expected a zero record, got %+v", report.Users[0])
	}
}

func TestRunEmptyRoster(t *testing.T) {
	r := &Runner{PRs: &fakePRs{}, Commits: fakeCommits{}}
	report := r.Run(context.Background(), nil, week())
	if len(report.Users) != 0 || report.Overall.UsersProcessed != 0 || report.Overall.MergeRate != 0 {
		t.Errorf("expected an all-zero report, got %+v", report.Overall)
	}
}

func TestRunLogsProgressAndAnomalies(t *testing.T) {
	var buf bytes.Buffer
	prs := &fakePRs{prs: map[string][]metrics.PRRecord{
		"a": {{State: "draft", CreatedAt: at("2024-01-02T00:00:00Z")}},
	}}
	r := &Runner{PRs: prs, Commits: fakeCommits{}, Logger: logging.New(&buf, false, false)}
	r.Run(context.Background(), []roster.Member{{Username: "a"}}, week())

	out := buf.String()
	if !strings.Contains(out, `msg="processing user" n=1 of=1 user=a`) {
		t.Errorf("missing progress line:\n%s", out)
	}
	if !strings.Contains(out, "malformed records") {
		t.Errorf("missing anomaly warning:\n%s", out)
	}
}
