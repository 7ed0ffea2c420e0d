package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Crawl configuration
	Region          string  `long:"region" env:"REGION" default:"sanantonio" description:"Craigslist region subdomain"`
	DBPath          string  `long:"db-path" env:"DB_PATH" default:"freefinder.db" description:"SQLite database path"`
	DryRun          bool    `long:"dry-run" description:"Print kept/dropped decisions without storing or notifying"`
	MaxItems        int     `long:"max-items" env:"MAX_ITEMS" default:"120" description:"Maximum number of listings to process per crawl"`
	DetailDelayMin  float64 `long:"detail-delay-min" env:"DETAIL_DELAY_MIN" default:"0.75" description:"Minimum seconds to sleep before each detail page request"`
	DetailDelayMax  float64 `long:"detail-delay-max" env:"DETAIL_DELAY_MAX" default:"1.5" description:"Maximum seconds to sleep before each detail page request"`
	MaxAgeDays      int     `long:"max-age" env:"MAX_AGE_DAYS" default:"7" description:"Freshness threshold in days"`
	Sort            string  `long:"sort" env:"SORT" default:"date" description:"Craigslist search sort parameter (e.g., date, rel)"`
	Postal          string  `long:"postal" env:"POSTAL" description:"Craigslist postal code filter"`
	SearchDistance  int     `long:"search-distance" env:"SEARCH_DISTANCE" description:"Craigslist search distance in miles (requires postal)"`
	AllowOutOfOrder bool    `long:"allow-out-of-order" description:"Do not stop when encountering listings older than the age threshold"`
	KeywordsFile    string  `long:"keywords-file" env:"KEYWORDS_FILE" description:"YAML file overriding the built-in keyword sets"`

	// Transport
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests (defaults to a browser UA)"`
	Timeout   int    `long:"timeout" env:"TIMEOUT" default:"15" description:"HTTP request timeout in seconds"`

	// Serve mode
	Serve         bool   `long:"serve" description:"Run the HTTP API with a background crawl scheduler instead of a single crawl"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	CrawlInterval int    `long:"crawl-interval" env:"CRAWL_INTERVAL" default:"3600" description:"Seconds between scheduled crawls (serve mode)"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers (serve mode)"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authenticated endpoints (optional)"`

	// Notification channels
	SlackWebhookURL string `long:"slack-webhook" env:"SLACK_WEBHOOK_URL" description:"Slack incoming webhook URL (optional)"`

	NtfyServer   string `long:"ntfy-server" env:"NTFY_SERVER" default:"https://ntfy.sh" description:"ntfy server base URL"`
	NtfyTopic    string `long:"ntfy-topic" env:"NTFY_TOPIC" description:"ntfy topic to publish to (optional)"`
	NtfyToken    string `long:"ntfy-token" env:"NTFY_TOKEN" description:"ntfy bearer token"`
	NtfyUsername string `long:"ntfy-user" env:"NTFY_USER" description:"ntfy basic auth username"`
	NtfyPassword string `long:"ntfy-password" env:"NTFY_PASSWORD" description:"ntfy basic auth password"`
	NtfyTitle    string `long:"ntfy-title" env:"NTFY_TITLE" default:"FreeFinder" description:"ntfy notification title"`
	NtfyPriority int    `long:"ntfy-priority" env:"NTFY_PRIORITY" description:"ntfy notification priority (1-5)"`

	SMSAccountSID string `long:"sms-account-sid" env:"SMS_ACCOUNT_SID" description:"Twilio account SID"`
	SMSAuthToken  string `long:"sms-auth-token" env:"SMS_AUTH_TOKEN" description:"Twilio auth token"`
	SMSFrom       string `long:"sms-from" env:"SMS_FROM" description:"SMS sender number"`
	SMSTo         string `long:"sms-to" env:"SMS_TO" description:"SMS recipient number"`

	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP server host"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUsername string `long:"smtp-user" env:"SMTP_USER" description:"SMTP username"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	EmailFrom    string `long:"email-from" env:"EMAIL_FROM" description:"Email sender address"`
	EmailTo      string `long:"email-to" env:"EMAIL_TO" description:"Email recipient address"`
	EmailUseSSL  bool   `long:"email-ssl" env:"EMAIL_SSL" description:"Use implicit TLS instead of STARTTLS"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables, validates
// them, and stores the result for Get. A nil, nil return means help was
// requested. All validation happens here, before any network or storage
// activity.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Region:          raw.Region,
		DBPath:          raw.DBPath,
		DryRun:          raw.DryRun,
		MaxItems:        raw.MaxItems,
		DetailDelayMin:  raw.DetailDelayMin,
		DetailDelayMax:  raw.DetailDelayMax,
		MaxAgeDays:      raw.MaxAgeDays,
		Sort:            raw.Sort,
		Postal:          raw.Postal,
		SearchDistance:  raw.SearchDistance,
		AllowOutOfOrder: raw.AllowOutOfOrder,
		KeywordsFile:    raw.KeywordsFile,
		UserAgent:       raw.UserAgent,
		Timeout:         raw.Timeout,
		Serve:           raw.Serve,
		Port:            raw.Port,
		CrawlInterval:   raw.CrawlInterval,
		WorkerCount:     raw.WorkerCount,
		APIAccessKey:    raw.APIAccessKey,
		SlackWebhookURL: raw.SlackWebhookURL,
		NtfyServer:      raw.NtfyServer,
		NtfyTopic:       raw.NtfyTopic,
		NtfyToken:       raw.NtfyToken,
		NtfyUsername:    raw.NtfyUsername,
		NtfyPassword:    raw.NtfyPassword,
		NtfyTitle:       raw.NtfyTitle,
		NtfyPriority:    raw.NtfyPriority,
		SMSAccountSID:   raw.SMSAccountSID,
		SMSAuthToken:    raw.SMSAuthToken,
		SMSFrom:         raw.SMSFrom,
		SMSTo:           raw.SMSTo,
		SMTPHost:        raw.SMTPHost,
		SMTPPort:        raw.SMTPPort,
		SMTPUsername:    raw.SMTPUsername,
		SMTPPassword:    raw.SMTPPassword,
		EmailFrom:       raw.EmailFrom,
		EmailTo:         raw.EmailTo,
		EmailUseSSL:     raw.EmailUseSSL,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.DetailDelayMin < 0 || c.DetailDelayMax < c.DetailDelayMin {
		return fmt.Errorf("invalid detail delay range: ensure 0 <= min <= max (got min %.2f, max %.2f)",
			c.DetailDelayMin, c.DetailDelayMax)
	}
	if c.SearchDistance != 0 && c.Postal == "" {
		return fmt.Errorf("--search-distance requires --postal to be set")
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 120
	}
	if c.MaxAgeDays <= 0 {
		return fmt.Errorf("max-age must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if err := c.validateChannels(); err != nil {
		return err
	}

	return nil
}

// validateChannels enforces the all-or-nothing rule: a channel is either
// fully configured or entirely absent.
func (c *Cfg) validateChannels() error {
	smsSet := countSet(c.SMSAccountSID, c.SMSAuthToken, c.SMSFrom, c.SMSTo)
	if smsSet != 0 && smsSet != 4 {
		return fmt.Errorf("SMS notifications require account SID, auth token, sender and recipient together")
	}

	emailSet := countSet(c.SMTPHost, c.EmailFrom, c.EmailTo)
	if emailSet != 0 && emailSet != 3 {
		return fmt.Errorf("email notifications require SMTP host, sender and recipient together")
	}

	credSet := countSet(c.SMTPUsername, c.SMTPPassword)
	if credSet == 1 {
		return fmt.Errorf("SMTP username and password must be provided together")
	}

	ntfyCredSet := countSet(c.NtfyUsername, c.NtfyPassword)
	if ntfyCredSet == 1 {
		return fmt.Errorf("ntfy username and password must be provided together")
	}
	if c.NtfyTopic == "" && (c.NtfyToken != "" || ntfyCredSet == 2) {
		return fmt.Errorf("ntfy credentials require a topic")
	}
	if c.NtfyPriority < 0 || c.NtfyPriority > 5 {
		return fmt.Errorf("ntfy priority must be between 1 and 5")
	}

	return nil
}

// SMSEnabled reports whether the SMS channel is configured.
func (c *Cfg) SMSEnabled() bool {
	return c.SMSAccountSID != ""
}

// EmailEnabled reports whether the email channel is configured.
func (c *Cfg) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// NtfyEnabled reports whether the ntfy channel is configured.
func (c *Cfg) NtfyEnabled() bool {
	return c.NtfyTopic != ""
}

// SlackEnabled reports whether the slack channel is configured.
func (c *Cfg) SlackEnabled() bool {
	return c.SlackWebhookURL != ""
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
