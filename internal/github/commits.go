package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/klytics/prpulse/internal/metrics"
)

// FetchCommitDates returns the author dates of user's commits in the
// client's org during w.
func (c *Client) FetchCommitDates(ctx context.Context, user string, w metrics.Window) ([]time.Time, error) {
	query := fmt.Sprintf("author:%s org:%s author-date:%s", user, c.org, searchRange(w.Since(), w.Until()))
	opts := &github.SearchOptions{
		Sort:        "author-date",
		Order:       "asc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var dates []time.Time
	for {
		var (
			result *github.CommitsSearchResult
			resp   *github.Response
		)
		err := c.withRateWait(ctx, func() error {
			var err error
			result, resp, err = c.gh.Search.Commits(ctx, query, opts)
			return err
		})
		if err != nil {
			return nil, &FetchError{Source: "commits", User: user, Kind: classify(err), Err: err}
		}
		if opts.Page == 0 && result.GetTotal() > searchCap {
			c.log.Warn("commit search truncated", "user", user, "total", result.GetTotal(), "cap", searchCap)
		}
		for _, hit := range result.Commits {
			d := hit.GetCommit().GetAuthor().GetDate()
			if d.IsZero() {
				continue
			}
			dates = append(dates, d.Time)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.log.Debug("commits found", "user", user, "count", len(dates))
	return dates, nil
}
