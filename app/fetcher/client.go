package fetcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultUserAgent matches a real browser so listing sites do not block us
// immediately.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"

const DefaultTimeout = 15 * time.Second

// DelayRange describes a uniform random pause taken before a request.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// NewDelayRange validates 0 <= min <= max. An invalid range is a
// configuration error and is rejected before any network activity.
func NewDelayRange(min, max time.Duration) (*DelayRange, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid delay range: min %s, max %s", min, max)
	}
	return &DelayRange{Min: min, Max: max}, nil
}

// sleep pauses for a random duration drawn from the range, returning early
// if the context is cancelled.
func (d *DelayRange) sleep(ctx context.Context) error {
	span := d.Max - d.Min
	delay := d.Min
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Client is a polite HTTP fetcher. One Client is shared across the search
// fetch and all detail fetches within a crawl so cookie state is reused;
// it is not used concurrently.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: userAgent,
	}
}

// UserAgent returns the user agent the client presents.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// HTTPClient exposes the underlying http.Client for collaborators that
// issue their own requests (robots.txt checks).
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Get fetches a URL and returns the response body as text. When delay is
// non-nil a random pause from the range precedes the request. Non-2xx
// responses are transport errors, never a parsed-HTML fallback.
func (c *Client) Get(ctx context.Context, url string, delay *DelayRange) (string, error) {
	if delay != nil {
		if err := delay.sleep(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP error fetching %s: %d %s", url, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
