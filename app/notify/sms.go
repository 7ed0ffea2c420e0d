package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultTwilioAPIBase = "https://api.twilio.com"

// SMSConfig is the Twilio configuration for the SMS channel. All four
// fields are required together.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// SMSChannel sends the one-line summary as a text message through the
// Twilio REST API.
type SMSChannel struct {
	config     SMSConfig
	apiBase    string
	httpClient *http.Client
}

func NewSMSChannel(config SMSConfig) *SMSChannel {
	return &SMSChannel{
		config:     config,
		apiBase:    defaultTwilioAPIBase,
		httpClient: &http.Client{Timeout: channelTimeout},
	}
}

func (c *SMSChannel) Name() string {
	return "sms"
}

func (c *SMSChannel) Send(ctx context.Context, summary Summary) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.apiBase, c.config.AccountSID)

	form := url.Values{}
	form.Set("To", c.config.To)
	form.Set("From", c.config.From)
	form.Set("Body", summary.Headline())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.config.AccountSID, c.config.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}
