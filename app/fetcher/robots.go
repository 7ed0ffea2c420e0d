package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits how much of a robots.txt response we read.
const maxRobotsBodyBytes = 512 * 1024

// RobotsChecker consults a site's robots.txt before the crawl touches it.
// Rules are cached per host. A robots.txt that cannot be fetched or parsed
// results in allow-all; that fail-open choice lives here and nowhere else.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	cache      map[string]*robotsEntry // keyed by host
	mu         sync.RWMutex
}

type robotsEntry struct {
	data     *robotstxt.RobotsData
	allowAll bool
}

func NewRobotsChecker(httpClient *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      make(map[string]*robotsEntry),
	}
}

// IsAllowed reports whether robots.txt permits fetching the given URL.
// The error is non-nil only for an unusable URL, never for a robots fetch
// failure.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry := r.getEntry(ctx, host, parsed.Scheme)
	if entry.allowAll {
		return true, nil
	}

	return entry.data.TestAgent(parsed.Path, r.userAgent), nil
}

func (r *RobotsChecker) getEntry(ctx context.Context, host, scheme string) *robotsEntry {
	r.mu.RLock()
	entry, ok := r.cache[host]
	r.mu.RUnlock()
	if ok {
		return entry
	}

	entry = r.fetchEntry(ctx, host, scheme)

	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()

	return entry
}

func (r *RobotsChecker) fetchEntry(ctx context.Context, host, scheme string) *robotsEntry {
	if scheme == "" {
		scheme = "https"
	}
	robotsURL := scheme + "://" + host + robotsTxtPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &robotsEntry{allowAll: true}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return &robotsEntry{allowAll: true}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &robotsEntry{allowAll: true}
	}

	return &robotsEntry{data: data}
}
