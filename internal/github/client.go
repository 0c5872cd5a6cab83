// Package github fetches pull requests and commit dates for a user from the
// GitHub REST API. It implements the collect.PRSource and
// collect.CommitSource interfaces.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/klytics/prpulse/internal/logging"
)

const (
	userAgent = "prpulse"
	perPage   = 100

	// searchCap is the most results the search API returns for one query.
	searchCap = 1000
)

// Options configures a Client.
type Options struct {
	Token string
	// BaseURL selects a GitHub Enterprise API endpoint. Empty means github.com.
	BaseURL string
	// Org is used when a fetch is called with an empty org.
	Org string
	// MaxRateWait caps the single wait for a rate-limit reset. Zero never waits.
	MaxRateWait time.Duration
	Logger      *slog.Logger
	// HTTPClient overrides the oauth2 transport; the token is then ignored.
	HTTPClient *http.Client
}

// Client is a GitHub-backed PR and commit source.
type Client struct {
	gh          *github.Client
	org         string
	maxRateWait time.Duration
	log         *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient creates an authenticated GitHub client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil && opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = userAgent
	if opts.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github.base_url %q: %w", opts.BaseURL, err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Client{
		gh:          gh,
		org:         opts.Org,
		maxRateWait: opts.MaxRateWait,
		log:         log,
		sleep:       sleepCtx,
	}, nil
}

// Identity describes the token owner, as reported by GET /user.
type Identity struct {
	Login         string    `json:"login"`
	RateLimit     int       `json:"rate_limit"`
	RateRemaining int       `json:"rate_remaining"`
	RateReset     time.Time `json:"rate_reset"`
}

// Whoami validates the token by fetching the authenticated user.
func (c *Client) Whoami(ctx context.Context) (*Identity, error) {
	var (
		user *github.User
		resp *github.Response
	)
	err := c.withRateWait(ctx, func() error {
		var err error
		user, resp, err = c.gh.Users.Get(ctx, "")
		return err
	})
	if err != nil {
		return nil, &FetchError{Source: "user", Kind: classify(err), Err: err}
	}
	id := &Identity{Login: user.GetLogin()}
	if resp != nil {
		id.RateLimit = resp.Rate.Limit
		id.RateRemaining = resp.Rate.Remaining
		id.RateReset = resp.Rate.Reset.Time
	}
	return id, nil
}

// withRateWait runs call and, if GitHub reports a rate limit whose reset is
// within maxRateWait, waits once and runs it again.
func (c *Client) withRateWait(ctx context.Context, call func() error) error {
	err := call()
	if err == nil {
		return nil
	}
	wait, limited := rateLimitWait(err)
	if !limited || c.maxRateWait <= 0 || wait > c.maxRateWait {
		return err
	}

	c.log.Warn("github rate limit reached, waiting for reset", "wait", wait.Round(time.Second))
	if err := c.sleep(ctx, wait); err != nil {
		return err
	}
	return call()
}

func rateLimitWait(err error) (time.Duration, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return max(time.Until(rle.Rate.Reset.Time), 0), true
	}
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		if abuse.RetryAfter != nil {
			return *abuse.RetryAfter, true
		}
		return time.Minute, true
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// searchRange formats the window as an ISO-8601 search range in the window's
// location, so dates match the calendar the report uses.
func searchRange(since, until time.Time) string {
	return since.Format(time.RFC3339) + ".." + until.Add(-time.Second).Format(time.RFC3339)
}
