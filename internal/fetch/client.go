// Package fetch downloads published files from package.elm-lang.org.
//
// Transient failures (network errors, 429 and 5xx responses) are retried
// with exponential backoff. A 404 is final and reported as ErrNotFound so
// callers can fall through to another source.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is the public Elm package site
	DefaultBaseURL = "https://package.elm-lang.org"

	// DefaultTimeout bounds a single HTTP attempt
	DefaultTimeout = 15 * time.Second

	// maxBodyBytes caps a downloaded file; search.json is the largest at a few MB
	maxBodyBytes = 64 << 20
)

var (
	// ErrNotFound is returned for 404 and 410 responses
	ErrNotFound = errors.New("remote file not found")
	// ErrUnavailable is returned when every attempt failed
	ErrUnavailable = errors.New("remote unavailable")
)

// StatusError reports an unexpected HTTP status
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Status, e.Body)
}

// Client is a small retrying HTTP GET client
type Client struct {
	httpClient *http.Client
	retry      RetryConfig
	userAgent  string
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the backoff policy
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client whose attempts time out after timeout
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
		userAgent:  "elm-package-mcp",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url and returns the body of a 200 response
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	attempt := 0
	body, err := retryWithBackoff(ctx, c.retry, func() ([]byte, error) {
		attempt++
		body, err := c.get(ctx, url)
		if err != nil && c.logger != nil && !errors.Is(err, ErrNotFound) {
			c.logger.Debug("fetch attempt failed", "url", url, "attempt", attempt, "err", err)
		}
		return body, err
	})
	if err == nil {
		return body, nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, attempt, err)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{URL: url, Status: resp.StatusCode, Body: string(snippet)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
