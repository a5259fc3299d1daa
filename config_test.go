package authcore

import (
	"testing"
	"time"

	"github.com/trinitylabs/authcore/security"
)

func TestConfigValidate_DefaultsPass(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}

func TestConfigValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "zero session timeout",
			mutate: func(c *Config) { c.Session.Timeout = 0 },
			want:   "Session Timeout must be positive",
		},
		{
			name:   "warning window exceeds timeout",
			mutate: func(c *Config) { c.Session.WarningWindow = c.Session.Timeout },
			want:   "Session WarningWindow must be positive and shorter than Timeout",
		},
		{
			name: "grace enabled without period",
			mutate: func(c *Config) {
				c.Session.GraceEnabled = true
				c.Session.GracePeriod = 0
			},
			want: "Session GracePeriod must be positive when grace is enabled",
		},
		{
			name:   "zero extension duration",
			mutate: func(c *Config) { c.Session.ExtensionDuration = 0 },
			want:   "Session ExtensionDuration must be positive",
		},
		{
			name:   "negative extension budget",
			mutate: func(c *Config) { c.Session.MaxExtensions = -1 },
			want:   "Session MaxExtensions must not be negative",
		},
		{
			name:   "zero idle timeout",
			mutate: func(c *Config) { c.Session.IdleTimeout = 0 },
			want:   "Session IdleTimeout must be positive",
		},
		{
			name:   "zero failed attempt cap",
			mutate: func(c *Config) { c.Security.MaxFailedAttempts = 0 },
			want:   "Security MaxFailedAttempts must be at least 1",
		},
		{
			name:   "negative lockout duration",
			mutate: func(c *Config) { c.Security.LockoutDuration = -time.Minute },
			want:   "Security LockoutDuration must not be negative",
		},
		{
			name:   "unknown sensitivity",
			mutate: func(c *Config) { c.Security.Sensitivity = security.Sensitivity("extreme") },
			want:   "Security Sensitivity must be low, medium, or high",
		},
		{
			name:   "zero retry attempts",
			mutate: func(c *Config) { c.Resilience.Retry.MaxAttempts = 0 },
			want:   "Resilience Retry MaxAttempts must be at least 1",
		},
		{
			name: "max delay below base delay",
			mutate: func(c *Config) {
				c.Resilience.Retry.BaseDelay = 10 * time.Second
				c.Resilience.Retry.MaxDelay = time.Second
			},
			want: "Resilience Retry MaxDelay must not be shorter than BaseDelay",
		},
		{
			name:   "zero offline validity",
			mutate: func(c *Config) { c.Resilience.OfflineTokenValidity = 0 },
			want:   "Resilience OfflineTokenValidity must be positive",
		},
		{
			name:   "zero flush interval",
			mutate: func(c *Config) { c.Dispatch.FlushInterval = 0 },
			want:   "Dispatch FlushInterval must be positive",
		},
		{
			name:   "zero active error TTL",
			mutate: func(c *Config) { c.Dispatch.ActiveErrorTTL = 0 },
			want:   "Dispatch ActiveErrorTTL must be positive",
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			want: "Audit BufferSize must be positive when audit is enabled",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestCloneConfig_DetachesBotPatterns(t *testing.T) {
	cfg := defaultConfig()
	out := cloneConfig(cfg)

	out.Security.BotPatterns[0] = "mutated"
	if cfg.Security.BotPatterns[0] == "mutated" {
		t.Fatal("clone must not share the bot pattern slice")
	}
}
