package cfg

import (
	"strings"
	"testing"
)

func validCfg() *Cfg {
	return &Cfg{
		Region:         "sanantonio",
		DBPath:         "freefinder.db",
		MaxItems:       120,
		DetailDelayMin: 0.75,
		DetailDelayMax: 1.5,
		MaxAgeDays:     7,
		Sort:           "date",
		Timeout:        15,
	}
}

func TestValidate(t *testing.T) {
	if err := validCfg().validate(); err != nil {
		t.Fatalf("Expected valid configuration, got %v", err)
	}
}

func TestValidate_MissingRegion(t *testing.T) {
	cfg := validCfg()
	cfg.Region = ""

	if err := cfg.validate(); err == nil {
		t.Error("Expected error for missing region")
	}
}

func TestValidate_DelayRange(t *testing.T) {
	tests := []struct {
		name    string
		min     float64
		max     float64
		wantErr bool
	}{
		{"equal bounds", 1.0, 1.0, false},
		{"zero range", 0, 0, false},
		{"min above max", 2.0, 1.0, true},
		{"negative min", -0.5, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCfg()
			cfg.DetailDelayMin = tt.min
			cfg.DetailDelayMax = tt.max

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_SearchDistanceRequiresPostal(t *testing.T) {
	cfg := validCfg()
	cfg.SearchDistance = 10

	err := cfg.validate()
	if err == nil {
		t.Fatal("Expected error for search distance without postal")
	}
	if !strings.Contains(err.Error(), "postal") {
		t.Errorf("Expected error mentioning postal, got %v", err)
	}

	cfg.Postal = "78205"
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with postal set, got %v", err)
	}
}

func TestValidate_MaxItemsDefaulted(t *testing.T) {
	cfg := validCfg()
	cfg.MaxItems = 0

	if err := cfg.validate(); err != nil {
		t.Fatalf("Expected non-positive max-items to be defaulted, got %v", err)
	}
	if cfg.MaxItems != 120 {
		t.Errorf("Expected max-items defaulted to 120, got %d", cfg.MaxItems)
	}
}

func TestValidate_SMSAllOrNothing(t *testing.T) {
	cfg := validCfg()
	cfg.SMSAccountSID = "AC123"
	cfg.SMSAuthToken = "token"

	if err := cfg.validate(); err == nil {
		t.Error("Expected error for partial SMS configuration")
	}

	cfg.SMSFrom = "+15550000001"
	cfg.SMSTo = "+15550000002"
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with full SMS settings, got %v", err)
	}
	if !cfg.SMSEnabled() {
		t.Error("Expected SMSEnabled with full SMS settings")
	}
}

func TestValidate_EmailAllOrNothing(t *testing.T) {
	cfg := validCfg()
	cfg.SMTPHost = "smtp.example.org"

	if err := cfg.validate(); err == nil {
		t.Error("Expected error for partial email configuration")
	}

	cfg.EmailFrom = "bot@example.org"
	cfg.EmailTo = "family@example.org"
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with full email settings, got %v", err)
	}

	cfg.SMTPUsername = "bot"
	if err := cfg.validate(); err == nil {
		t.Error("Expected error for SMTP username without password")
	}
	cfg.SMTPPassword = "secret"
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with SMTP credentials, got %v", err)
	}
}

func TestValidate_NtfyCredentialsRequireTopic(t *testing.T) {
	cfg := validCfg()
	cfg.NtfyToken = "tk_secret"

	if err := cfg.validate(); err == nil {
		t.Error("Expected error for ntfy token without topic")
	}

	cfg.NtfyTopic = "freestuff"
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with topic set, got %v", err)
	}
	if !cfg.NtfyEnabled() {
		t.Error("Expected NtfyEnabled with topic set")
	}
}

func TestValidate_NtfyPriorityRange(t *testing.T) {
	cfg := validCfg()
	cfg.NtfyTopic = "freestuff"
	cfg.NtfyPriority = 6

	if err := cfg.validate(); err == nil {
		t.Error("Expected error for out-of-range ntfy priority")
	}

	cfg.NtfyPriority = 5
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected valid configuration with priority 5, got %v", err)
	}
}
