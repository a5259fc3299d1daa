package authcore

import (
	"errors"

	"github.com/trinitylabs/authcore/dispatch"
	"github.com/trinitylabs/authcore/resilience"
	"github.com/trinitylabs/authcore/security"
	"github.com/trinitylabs/authcore/session"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session    session.Config
	Security   security.Config
	Resilience resilience.Config
	Dispatch   dispatch.Config
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session:    session.DefaultConfig(),
		Security:   security.DefaultConfig(),
		Resilience: resilience.DefaultConfig(),
		Dispatch:   dispatch.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Security.BotPatterns = append([]string(nil), cfg.Security.BotPatterns...)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Session.Timeout <= 0 {
		return errors.New("Session Timeout must be positive")
	}
	if c.Session.WarningWindow <= 0 || c.Session.WarningWindow >= c.Session.Timeout {
		return errors.New("Session WarningWindow must be positive and shorter than Timeout")
	}
	if c.Session.GraceEnabled && c.Session.GracePeriod <= 0 {
		return errors.New("Session GracePeriod must be positive when grace is enabled")
	}
	if c.Session.ExtensionDuration <= 0 {
		return errors.New("Session ExtensionDuration must be positive")
	}
	if c.Session.MaxExtensions < 0 {
		return errors.New("Session MaxExtensions must not be negative")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be positive")
	}
	if c.Session.ActivityCheckInterval <= 0 {
		return errors.New("Session ActivityCheckInterval must be positive")
	}
	if c.Session.DecayWindow <= 0 {
		return errors.New("Session DecayWindow must be positive")
	}
	if c.Session.Retention <= 0 {
		return errors.New("Session Retention must be positive")
	}

	if c.Security.MaxFailedAttempts < 1 {
		return errors.New("Security MaxFailedAttempts must be at least 1")
	}
	if c.Security.FailedAttemptWindow <= 0 {
		return errors.New("Security FailedAttemptWindow must be positive")
	}
	if c.Security.LockoutDuration < 0 {
		return errors.New("Security LockoutDuration must not be negative")
	}
	switch c.Security.Sensitivity {
	case security.SensitivityLow, security.SensitivityMedium, security.SensitivityHigh:
	default:
		return errors.New("Security Sensitivity must be low, medium, or high")
	}
	if c.Security.MonitoringInterval <= 0 {
		return errors.New("Security MonitoringInterval must be positive")
	}
	if c.Security.Retention <= 0 {
		return errors.New("Security Retention must be positive")
	}
	if c.Security.AlertThreshold < 1 {
		return errors.New("Security AlertThreshold must be at least 1")
	}

	if c.Resilience.Retry.MaxAttempts < 1 {
		return errors.New("Resilience Retry MaxAttempts must be at least 1")
	}
	if c.Resilience.Retry.BaseDelay <= 0 {
		return errors.New("Resilience Retry BaseDelay must be positive")
	}
	if c.Resilience.Retry.BackoffFactor < 1 {
		return errors.New("Resilience Retry BackoffFactor must be at least 1")
	}
	if c.Resilience.Retry.MaxDelay < c.Resilience.Retry.BaseDelay {
		return errors.New("Resilience Retry MaxDelay must not be shorter than BaseDelay")
	}
	if c.Resilience.OfflineTokenValidity <= 0 {
		return errors.New("Resilience OfflineTokenValidity must be positive")
	}

	if c.Dispatch.FlushInterval <= 0 {
		return errors.New("Dispatch FlushInterval must be positive")
	}
	if c.Dispatch.ActiveErrorTTL <= 0 {
		return errors.New("Dispatch ActiveErrorTTL must be positive")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}

	return nil
}
