// Package fetch implements the Fetcher interface.
// It performs a single HTTP GET per run with a hard timeout; a failed
// attempt is a pipeline failure, retries are caller policy.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/codecapsule/core"
)

const (
	// DefaultTimeout bounds the whole request, redirects included.
	DefaultTimeout = 15 * time.Second

	defaultUserAgent = "Mozilla/5.0 (CapsuleBot/1.0; +https://github.com/gaurav-prasanna/codecapsule)"

	// Outbound request budget shared by all concurrent runs.
	defaultRate  = 4
	defaultBurst = 8
)

// Error is the fetch-layer failure, carrying the HTTP status when one
// was received. Status is 0 for transport errors and timeouts.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPFetcher fetches web pages via HTTP. It follows redirects, always
// goes to the network (no caching layer), and rate-limits outbound
// requests across concurrent runs.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

// WithRateLimit overrides the outbound requests-per-second budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *HTTPFetcher) { f.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates an HTTPFetcher with the default timeout and rate limit.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	// Always go to origin; never serve a capsule from an intermediary cache.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return &core.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}
