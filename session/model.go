package session

import "time"

// ActivityType classifies one observed activity for scoring purposes.
type ActivityType string

const (
	// ActivityUserInteraction is a direct user action (tap, scroll, input).
	ActivityUserInteraction ActivityType = "user_interaction"
	// ActivityAPICall is an application-initiated backend call.
	ActivityAPICall ActivityType = "api_call"
	// ActivityBackgroundTask is background work done on the user's behalf.
	ActivityBackgroundTask ActivityType = "background_task"
	// ActivityHeartbeat is a liveness ping with minimal engagement signal.
	ActivityHeartbeat ActivityType = "heartbeat"
)

// maxActivityScore caps the engagement heuristic.
const maxActivityScore = 100

func (t ActivityType) weight() int {
	switch t {
	case ActivityUserInteraction:
		return 10
	case ActivityAPICall:
		return 5
	case ActivityBackgroundTask:
		return 2
	case ActivityHeartbeat:
		return 1
	default:
		return 1
	}
}

// Session is the device-local record of one authenticated period. It is
// owned exclusively by the [Manager]; callers receive value snapshots.
type Session struct {
	SessionID      string
	UserID         string
	CreatedAt      time.Time
	LastActivity   time.Time
	ExpiresAt      time.Time
	WarningShownAt time.Time
	ExtensionsUsed int
	Active         bool
	ActivityScore  int

	// ExpiredReason and ExpiredAt are set once the session leaves Active and
	// are stable for the retention window.
	ExpiredReason string
	ExpiredAt     time.Time
}

// Config holds session lifecycle tuning parameters.
type Config struct {
	Timeout               time.Duration // absolute session lifetime
	WarningWindow         time.Duration // warning fires this long before expiry
	GraceEnabled          bool
	GracePeriod           time.Duration // extra slack after expiry before the timer fires
	AutoExtend            bool
	ExtensionDuration     time.Duration
	MaxExtensions         int
	IdleTimeout           time.Duration
	ActivityCheckInterval time.Duration // idle sweep interval
	DecayWindow           time.Duration // activity score reaches 0 after this much idle time
	Retention             time.Duration // expired sessions stay queryable this long
}

// DefaultConfig returns the documented session defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:               30 * time.Minute,
		WarningWindow:         5 * time.Minute,
		GraceEnabled:          true,
		GracePeriod:           2 * time.Minute,
		AutoExtend:            true,
		ExtensionDuration:     15 * time.Minute,
		MaxExtensions:         3,
		IdleTimeout:           15 * time.Minute,
		ActivityCheckInterval: 30 * time.Second,
		DecayWindow:           5 * time.Minute,
		Retention:             time.Hour,
	}
}
