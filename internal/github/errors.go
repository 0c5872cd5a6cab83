package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/google/go-github/v62/github"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindPermission  ErrorKind = "permission"
	KindRateLimited ErrorKind = "rate_limited"
	KindNetwork     ErrorKind = "network"
	KindAPI         ErrorKind = "api"
)

// FetchError is returned for any failed per-user fetch.
type FetchError struct {
	Source string // "pull requests", "commits" or "user"
	User   string
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("github %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("github %s for %s: %s: %v", e.Source, e.User, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func classify(err error) ErrorKind {
	var rle *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &abuse) {
		return KindRateLimited
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return KindNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindPermission
		}
		return KindAPI
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) {
		return KindNetwork
	}
	return KindAPI
}
