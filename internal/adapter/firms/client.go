package firms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
)

const (
	// minPayloadBytes rejects proxy error pages and truncated bodies.
	minPayloadBytes = 100
	maxPayloadBytes = 128 << 20

	defaultBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 2 * time.Second
)

// Client fetches FIRMS CSV payloads, falling back through mirror prefixes
// when the direct request fails.
type Client struct {
	httpClient *http.Client
	mirrors    []string
	backoff    time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMirrors sets the proxy prefixes tried after the direct URL. The
// escaped source URL is appended to each prefix.
func WithMirrors(mirrors []string) Option {
	return func(c *Client) { c.mirrors = mirrors }
}

// WithBackoff sets the pause between attempts. It doubles after each
// failure up to maxBackoff.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(c *Client) {
		c.backoff = initial
		c.maxBackoff = maxBackoff
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a FIRMS client. Per-request deadlines come from the
// caller's context.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchText returns the CSV body served at rawURL. The direct URL is tried
// first, then each mirror in order. The error of the last attempt is returned
// when all fail.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	attempts := c.attemptURLs(rawURL)
	backoff := c.backoff

	var lastErr error
	for i, u := range attempts {
		if i > 0 {
			if !sharedretry.SleepWithContext(ctx, backoff) {
				return "", classify(ctx.Err())
			}
			backoff = sharedretry.NextBackoff(backoff, c.maxBackoff)
		}

		body, err := c.fetchOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.logger.Debug("fetch attempt failed",
			"url", rawURL,
			"attempt", i+1,
			"attempts", len(attempts),
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	if len(attempts) == 1 {
		return "", lastErr
	}
	return "", fmt.Errorf("all %d attempts failed for %s: %w", len(attempts), rawURL, lastErr)
}

func (c *Client) attemptURLs(rawURL string) []string {
	urls := make([]string, 0, len(c.mirrors)+1)
	urls = append(urls, rawURL)
	for _, m := range c.mirrors {
		urls = append(urls, m+url.QueryEscape(rawURL))
	}
	return urls
}

func (c *Client) fetchOnce(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv,text/plain,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return "", classify(err)
	}
	text := string(body)
	if len(text) < minPayloadBytes || !strings.Contains(text, "latitude") {
		return "", fmt.Errorf("%w from %s", domain.ErrInvalidPayload, u)
	}
	return text, nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", domain.ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrFetchNetwork, err)
}
