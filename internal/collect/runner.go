// Package collect drives the per-user fetch for a roster and hands the
// results to the metrics engine.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/klytics/prpulse/internal/logging"
	"github.com/klytics/prpulse/internal/metrics"
	"github.com/klytics/prpulse/internal/progress"
	"github.com/klytics/prpulse/internal/roster"
)

// PRSource returns the pull requests a user opened in org during w.
type PRSource interface {
	FetchPRs(ctx context.Context, user, org string, w metrics.Window) ([]metrics.PRRecord, error)
}

// CommitSource returns the author timestamps of a user's commits during w.
type CommitSource interface {
	FetchCommitDates(ctx context.Context, user string, w metrics.Window) ([]time.Time, error)
}

// AISource returns AI-assistant usage for an identity. A returned error is
// treated as an unavailable service, never as a failed user.
type AISource interface {
	FetchAIUsage(ctx context.Context, identity string, w metrics.Window) (metrics.AIStatus, error)
}

// Runner fetches every roster member and builds the report. AI may be nil
// to skip AI usage entirely.
type Runner struct {
	Org         string
	PRs         PRSource
	Commits     CommitSource
	AI          AISource
	Concurrency int
	Logger      *slog.Logger
	Bar         *progress.Bar
	Now         func() time.Time
}

// Run processes members with at most Concurrency fetches in flight. Users
// keep their roster position in the report. A cancelled ctx does not drop
// users: those not yet fetched are reported with the context error.
func (r *Runner) Run(ctx context.Context, members []roster.Member, w metrics.Window) *metrics.OrgReport {
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	results := make([]metrics.UserMetrics, len(members))
	var mu sync.Mutex

	process := func(idx int, m roster.Member) {
		mu.Lock()
		log.Info("processing user", "n", idx+1, "of", len(members), "user", m.Username)
		mu.Unlock()

		um := r.user(ctx, m, w)

		mu.Lock()
		results[idx] = um
		if um.Failed() {
			log.Warn("could not fetch user", "user", m.Username, "error", um.Error)
		}
		if um.Anomalies > 0 {
			log.Warn("malformed records adjusted or dropped", "user", m.Username, "count", um.Anomalies)
		}
		if um.AI != nil && um.AI.Status != metrics.AIStatusOK && um.AI.Status != metrics.AIStatusNoAPIKey {
			log.Debug("AI usage not available", "user", m.Username, "status", um.AI.Status, "reason", um.AI.Reason)
		}
		r.Bar.Increment(m.Username)
		mu.Unlock()
	}

	if r.Concurrency <= 1 {
		for i, m := range members {
			process(i, m)
		}
	} else {
		sem := make(chan struct{}, r.Concurrency)
		var wg sync.WaitGroup
		for i, m := range members {
			wg.Add(1)
			go func(idx int, m roster.Member) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				process(idx, m)
			}(i, m)
		}
		wg.Wait()
	}
	r.Bar.Finish(fmt.Sprintf("%d users processed", len(members)))

	return metrics.NewOrgReport(r.Org, w, now(), results)
}

func (r *Runner) user(ctx context.Context, m roster.Member, w metrics.Window) metrics.UserMetrics {
	in := metrics.UserInput{Username: m.Username}
	if err := ctx.Err(); err != nil {
		in.Err = fmt.Errorf("not fetched: %w", err)
		return metrics.BuildUser(in, w)
	}
	// Nothing can fall inside an empty window.
	if w.Empty() {
		return metrics.BuildUser(in, w)
	}

	prs, err := r.PRs.FetchPRs(ctx, m.Username, r.Org, w)
	if err != nil {
		in.Err = err
		return metrics.BuildUser(in, w)
	}
	commits, err := r.Commits.FetchCommitDates(ctx, m.Username, w)
	if err != nil {
		in.Err = err
		return metrics.BuildUser(in, w)
	}
	in.PRs = prs
	in.Commits = commits

	if r.AI != nil {
		status, err := r.AI.FetchAIUsage(ctx, m.Identity(), w)
		if err != nil {
			status = metrics.AIStatus{Kind: metrics.AIStatusUnavailable, Reason: err.Error()}
		}
		ai := metrics.AggregateAI(status)
		in.AI = &ai
	}
	return metrics.BuildUser(in, w)
}
