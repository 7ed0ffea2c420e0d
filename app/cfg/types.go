package cfg

type Cfg struct {
	// Crawl configuration
	Region          string
	DBPath          string
	DryRun          bool
	MaxItems        int
	DetailDelayMin  float64 // seconds
	DetailDelayMax  float64 // seconds
	MaxAgeDays      int
	Sort            string
	Postal          string
	SearchDistance  int
	AllowOutOfOrder bool
	KeywordsFile    string

	// Transport
	UserAgent string
	Timeout   int // seconds

	// Serve mode
	Serve         bool
	Port          string
	CrawlInterval int // seconds
	WorkerCount   int
	APIAccessKey  string

	// Notification channels (each optional, each all-or-nothing)
	SlackWebhookURL string

	NtfyServer   string
	NtfyTopic    string
	NtfyToken    string
	NtfyUsername string
	NtfyPassword string
	NtfyTitle    string
	NtfyPriority int

	SMSAccountSID string
	SMSAuthToken  string
	SMSFrom       string
	SMSTo         string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailTo      string
	EmailUseSSL  bool

	// Application metadata
	Debug   bool
	Version string
}
