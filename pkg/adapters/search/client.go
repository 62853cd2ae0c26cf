package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tabi/pkg/domain"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single provider request when no http.Client is injected.
const DefaultTimeout = 10 * time.Second

// maxErrorBody is how much of a failed response is kept for the error message.
const maxErrorBody = 256

// client holds what every provider shares.
type client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

// Option configures a provider.
type Option func(*client)

// WithHTTPClient injects the HTTP client (timeouts, transport).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBaseURL overrides the API endpoint, e.g. for tests or a proxy.
func WithBaseURL(u string) Option {
	return func(cl *client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithRateLimit spaces requests at most every interval. Zero disables limiting.
func WithRateLimit(interval time.Duration) Option {
	return func(cl *client) {
		if interval <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

func newClient(baseURL string, opts []Option) *client {
	cl := &client{
		http:      &http.Client{Timeout: DefaultTimeout},
		baseURL:   baseURL,
		userAgent: "tabi/dev (+https://github.com/aretw0/tabi)",
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// getJSON performs a GET against baseURL+path and decodes the body into out.
func (c *client) getJSON(ctx context.Context, provider, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unavailable(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return unavailable(provider, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func unavailable(provider string, cause error) error {
	return fmt.Errorf("%s: %w: %v", provider, domain.ErrProviderUnavailable, cause)
}

// joinSnippets trims, dedupes and joins non-empty snippets, one per line.
func joinSnippets(snippets []string) string {
	seen := make(map[string]bool, len(snippets))
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		lines = append(lines, "- "+s)
	}
	return strings.Join(lines, "\n")
}
