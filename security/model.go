package security

import "time"

// EventType is the closed set of detected anomaly kinds.
type EventType string

const (
	EventFailedLogin            EventType = "failed_login"
	EventMultipleFailedAttempts EventType = "multiple_failed_attempts"
	EventSuspiciousLogin        EventType = "suspicious_login"
	EventRateLimitExceeded      EventType = "rate_limit_exceeded"
	EventBruteForceAttack       EventType = "brute_force_attack"
	EventAccountLocked          EventType = "account_locked"
	EventAccountUnlocked        EventType = "account_unlocked"
)

// Severity ranks an event's impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Sensitivity tunes how many suspicious factors flag a login.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// factorThreshold returns how many factors are required to flag a login.
func (s Sensitivity) factorThreshold() int {
	switch s {
	case SensitivityLow:
		return 3
	case SensitivityHigh:
		return 1
	default:
		return 2
	}
}

// Event is the immutable record of one detected anomaly. Only Resolved and
// the resolution note mutate after creation.
type Event struct {
	ID                string
	Type              EventType
	Severity          Severity
	Timestamp         time.Time
	UserID            string
	SessionID         string
	IPAddress         string
	UserAgent         string
	Location          string
	DeviceFingerprint string
	Details           map[string]string
	Resolved          bool
	ResolutionNote    string
	ResolvedAt        time.Time
	ResponseActions   []string
}

// Context carries the request attributes available at detection time.
type Context struct {
	UserID            string
	SessionID         string
	IPAddress         string
	UserAgent         string
	Location          string // ISO country code or equivalent region hint
	DeviceFingerprint string
}

// Config holds security monitor tuning parameters.
type Config struct {
	MaxFailedAttempts   int
	FailedAttemptWindow time.Duration
	LockoutDuration     time.Duration
	AutoRespond         bool
	Sensitivity         Sensitivity
	MonitoringInterval  time.Duration
	Retention           time.Duration
	AlertThreshold      int // coordinated-attack events per IP per 24h
	BotPatterns         []string
}

// DefaultConfig returns the documented security defaults.
func DefaultConfig() Config {
	return Config{
		MaxFailedAttempts:   5,
		FailedAttemptWindow: time.Hour,
		LockoutDuration:     15 * time.Minute,
		AutoRespond:         true,
		Sensitivity:         SensitivityMedium,
		MonitoringInterval:  time.Minute,
		Retention:           7 * 24 * time.Hour,
		AlertThreshold:      10,
		BotPatterns: []string{
			"bot", "crawler", "spider", "curl", "wget", "python-requests", "scrapy",
		},
	}
}

// Filter selects events from the log. Zero fields match everything.
type Filter struct {
	Type       EventType
	Severity   Severity
	UserID     string
	IPAddress  string
	Since      time.Time
	Until      time.Time
	Unresolved bool
	Limit      int
}

// Metrics is a point-in-time summary of the monitor's posture.
type Metrics struct {
	TotalEvents      int
	EventsByType     map[EventType]int
	EventsBySeverity map[Severity]int
	UnresolvedEvents int
	LockedAccounts   int
	TrackedProfiles  int
	ThreatIPs        int
}
