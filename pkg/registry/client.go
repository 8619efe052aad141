package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pkgbot/pkg/cache"
	"pkgbot/pkg/version"
)

const (
	defaultTimeout = 15 * time.Second
	// Full npm packuments of long-lived packages run past 16 MiB.
	defaultMaxBodySize int64 = 64 * 1024 * 1024
)

// ErrResponseTooLarge is returned when a body exceeds the client's size limit.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client performs JSON GET requests against registry endpoints.
type Client struct {
	httpClient *http.Client
	userAgent  string
	cache      cache.Store
	cacheTTL   time.Duration
	maxBody    int64
}

// NewClient creates a registry HTTP client. Zero values fall back to defaults.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		cache:      cache.Nop{},
		maxBody:    defaultMaxBodySize,
	}
}

// WithMaxBodySize caps response bodies at n bytes. Non-positive n keeps the default.
func (c *Client) WithMaxBodySize(n int64) *Client {
	if n > 0 {
		c.maxBody = n
	}
	return c
}

// WithCache makes GetJSON serve successful responses from store for ttl.
func (c *Client) WithCache(store cache.Store, ttl time.Duration) *Client {
	if store == nil {
		store = cache.Nop{}
	}
	c.cache = store
	c.cacheTTL = ttl
	return c
}

// GetJSON fetches rawURL and decodes the JSON body into out. Cache failures
// fall through to the network.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	if body, ok, err := c.cache.Get(ctx, rawURL); err == nil && ok {
		if err := json.Unmarshal(body, out); err == nil {
			return nil
		}
		_ = c.cache.Delete(ctx, rawURL)
	}

	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	_ = c.cache.Set(ctx, rawURL, body, c.cacheTTL)
	return nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("GET %s: %w: over %d bytes", rawURL, ErrResponseTooLarge, c.maxBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// parseTime accepts the timestamp layouts registries emit; unparseable input yields zero.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// detailError classifies a failed detail fetch. Cancellation passes through untouched.
func detailError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	regErr := NewError(provider, ErrInvalidResponse, err.Error())
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		regErr.StatusCode = statusErr.StatusCode
	}
	return regErr
}
