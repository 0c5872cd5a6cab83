package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"

	"github.com/klytics/prpulse/internal/metrics"
)

// FetchPRs returns the pull requests user opened in org during w. Each
// search hit is resolved to its pull request for line counts and merge
// status; when that lookup fails the hit keeps the state search reported
// and zero line counts.
func (c *Client) FetchPRs(ctx context.Context, user, org string, w metrics.Window) ([]metrics.PRRecord, error) {
	if org == "" {
		org = c.org
	}
	query := fmt.Sprintf("is:pr author:%s org:%s created:%s", user, org, searchRange(w.Since(), w.Until()))
	opts := &github.SearchOptions{
		Sort:        "created",
		Order:       "asc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var issues []*github.Issue
	for {
		var (
			result *github.IssuesSearchResult
			resp   *github.Response
		)
		err := c.withRateWait(ctx, func() error {
			var err error
			result, resp, err = c.gh.Search.Issues(ctx, query, opts)
			return err
		})
		if err != nil {
			return nil, &FetchError{Source: "pull requests", User: user, Kind: classify(err), Err: err}
		}
		if opts.Page == 0 && result.GetTotal() > searchCap {
			c.log.Warn("search result truncated", "user", user, "total", result.GetTotal(), "cap", searchCap)
		}
		issues = append(issues, result.Issues...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.log.Debug("pull requests found", "user", user, "count", len(issues))

	prs := make([]metrics.PRRecord, 0, len(issues))
	for _, issue := range issues {
		if !issue.IsPullRequest() {
			continue
		}
		prs = append(prs, c.resolve(ctx, user, issue))
	}
	return prs, nil
}

func (c *Client) resolve(ctx context.Context, user string, issue *github.Issue) metrics.PRRecord {
	owner, repo := repoFromURL(issue.GetRepositoryURL())
	rec := metrics.PRRecord{
		Number:     issue.GetNumber(),
		State:      metrics.StateOpen,
		CreatedAt:  issue.GetCreatedAt().Time,
		Repository: owner + "/" + repo,
		Title:      issue.GetTitle(),
		URL:        issue.GetHTMLURL(),
	}
	if issue.GetState() == "closed" {
		rec.State = metrics.StateClosed
		if issue.ClosedAt != nil {
			closed := issue.GetClosedAt().Time
			rec.ClosedAt = &closed
		}
	}
	// Search hits carry merged_at, so a merge survives a failed detail lookup.
	if links := issue.GetPullRequestLinks(); links != nil && links.MergedAt != nil {
		rec.State = metrics.StateMerged
		merged := links.GetMergedAt().Time
		rec.ClosedAt = &merged
	}

	var pr *github.PullRequest
	err := c.withRateWait(ctx, func() error {
		var err error
		pr, _, err = c.gh.PullRequests.Get(ctx, owner, repo, issue.GetNumber())
		return err
	})
	if err != nil {
		c.log.Warn("could not fetch pull request details; line counts set to 0",
			"user", user, "repo", rec.Repository, "number", rec.Number, "error", err)
		return rec
	}

	rec.LinesAdded = pr.GetAdditions()
	rec.LinesDeleted = pr.GetDeletions()
	switch {
	case pr.GetMerged() || pr.MergedAt != nil:
		rec.State = metrics.StateMerged
		merged := pr.GetMergedAt().Time
		rec.ClosedAt = &merged
	case pr.GetState() == "closed":
		rec.State = metrics.StateClosed
		if pr.ClosedAt != nil {
			closed := pr.GetClosedAt().Time
			rec.ClosedAt = &closed
		}
	default:
		rec.State = metrics.StateOpen
		rec.ClosedAt = nil
	}
	return rec
}

// repoFromURL extracts owner and name from an API repository URL such as
// https://api.github.com/repos/acme/widgets.
func repoFromURL(raw string) (owner, repo string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}
