// Package aiusage reads per-user AI-assistant usage from a REST usage API.
// It implements collect.AISource.
package aiusage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klytics/prpulse/internal/logging"
	"github.com/klytics/prpulse/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// maxPages bounds cursor pagination against a misbehaving server.
const maxPages = 100

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client queries the usage API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

type usageResponse struct {
	Events     []metrics.AIUsageEvent `json:"events"`
	NextCursor string                 `json:"next_cursor"`
}

// New creates a usage API client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		log:     log,
	}
}

// FetchAIUsage returns the usage events for identity during w. Missing
// credentials, unknown users and service failures are reported through the
// status, never as an error.
func (c *Client) FetchAIUsage(ctx context.Context, identity string, w metrics.Window) (metrics.AIStatus, error) {
	if c.apiKey == "" {
		return metrics.AIStatus{Kind: metrics.AIStatusNoAPIKey, Reason: "ai.api_key is not configured"}, nil
	}

	var events []metrics.AIUsageEvent
	cursor := ""
	for page := 0; page < maxPages; page++ {
		resp, status, err := c.fetchPage(ctx, identity, w, cursor)
		if err != nil {
			c.log.Warn("AI usage unavailable", "identity", identity, "error", err)
			return metrics.AIStatus{Kind: metrics.AIStatusUnavailable, Reason: err.Error()}, nil
		}
		if status == http.StatusNotFound {
			return metrics.AIStatus{
				Kind:   metrics.AIStatusUserNotFound,
				Reason: fmt.Sprintf("no AI usage account for %s", identity),
			}, nil
		}
		events = append(events, resp.Events...)
		cursor = resp.NextCursor
		if cursor == "" {
			break
		}
	}
	if cursor != "" {
		reason := fmt.Sprintf("usage for %s spans more than %d pages", identity, maxPages)
		c.log.Warn("AI usage truncated", "identity", identity, "pages", maxPages)
		return metrics.AIStatus{Kind: metrics.AIStatusUnavailable, Reason: reason}, nil
	}

	c.log.Debug("AI usage events", "identity", identity, "count", len(events))
	return metrics.AIStatus{Kind: metrics.AIStatusOK, Events: events}, nil
}

func (c *Client) fetchPage(ctx context.Context, identity string, w metrics.Window, cursor string) (*usageResponse, int, error) {
	q := url.Values{}
	q.Set("start", w.StartDate())
	q.Set("end", w.EndDate())
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(identity) + "/usage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("AI usage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("could not read AI usage response (status %d): %w", resp.StatusCode, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, nil
	case resp.StatusCode != http.StatusOK:
		return nil, resp.StatusCode, fmt.Errorf("AI usage API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result usageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("could not parse AI usage response: %w", err)
	}
	return &result, resp.StatusCode, nil
}
