package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const DefaultNtfyServer = "https://ntfy.sh"

// NtfyConfig configures the ntfy push channel. Topic is required; either
// a bearer token or a username/password pair may be set for protected
// topics.
type NtfyConfig struct {
	Server   string
	Topic    string
	Token    string
	Username string
	Password string
	Title    string
	Priority int
}

// NtfyChannel publishes the full summary body to an ntfy topic.
type NtfyChannel struct {
	config     NtfyConfig
	httpClient *http.Client
}

func NewNtfyChannel(config NtfyConfig) *NtfyChannel {
	if config.Server == "" {
		config.Server = DefaultNtfyServer
	}
	return &NtfyChannel{
		config:     config,
		httpClient: &http.Client{Timeout: channelTimeout},
	}
}

func (c *NtfyChannel) Name() string {
	return "ntfy"
}

func (c *NtfyChannel) Send(ctx context.Context, summary Summary) error {
	url := strings.TrimRight(c.config.Server, "/") + "/" + c.config.Topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(summary.Body()))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %w", err)
	}

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	} else if c.config.Username != "" && c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
	if c.config.Title != "" {
		req.Header.Set("Title", c.config.Title)
	}
	if c.config.Priority > 0 {
		req.Header.Set("Priority", strconv.Itoa(c.config.Priority))
	}
	if len(summary.Listings) > 0 {
		req.Header.Set("Click", summary.Listings[0].URL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}
