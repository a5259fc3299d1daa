package dispatch

import (
	"strings"
	"time"
)

// ActionKind is the closed set of recovery actions a handler may request.
type ActionKind string

const (
	ActionLogout         ActionKind = "logout"
	ActionClearCache     ActionKind = "clear_cache"
	ActionRetryOperation ActionKind = "retry_operation"
	ActionNotifyUser     ActionKind = "notify_user"
	ActionRedirect       ActionKind = "redirect"
)

// Action is one recovery step. Lower Priority runs first; Delay is honored
// before the step executes.
type Action struct {
	Kind     ActionKind
	Priority int
	Delay    time.Duration
	Metadata map[string]string
}

// Context describes where a reported error came from.
type Context struct {
	Service   string
	Operation string
	UserID    string
	SessionID string
	Metadata  map[string]string
}

// Result is a handler's decision for one error.
type Result struct {
	Handled        bool
	Retry          bool
	RetryDelay     time.Duration
	Message        string
	RequiresReauth bool
	PropagateTo    []string
	Actions        []Action
}

// HandlerFunc produces a Result for one (error, context) pair.
type HandlerFunc func(err error, code string, c Context) Result

// Handler is a registered routing descriptor. Service "*" matches every
// service; ErrorTypes nil or containing "*" matches every code; otherwise a
// code matches by membership or substring. Higher Priority wins.
type Handler struct {
	ID         string
	Service    string
	ErrorTypes []string
	Priority   int
	Handle     HandlerFunc
}

func (h Handler) matches(service, code string) bool {
	if h.Service != "*" && h.Service != service {
		return false
	}
	if len(h.ErrorTypes) == 0 {
		return true
	}
	for _, t := range h.ErrorTypes {
		if t == "*" || t == code {
			return true
		}
		if t != "" && strings.Contains(code, t) {
			return true
		}
	}
	return false
}

// ActiveError is a live aggregate of one (service, code) failure stream.
type ActiveError struct {
	Service     string
	Code        string
	Count       int
	FirstSeen   time.Time
	LastSeen    time.Time
	LastMessage string
	Retryable   bool
}

// Config holds dispatcher tuning parameters.
type Config struct {
	// FlushInterval is the aggregation window for (service, code) counters.
	FlushInterval time.Duration
	// ActiveErrorTTL bounds how long an idle (service, code) stream stays in
	// the active set.
	ActiveErrorTTL time.Duration
}

// DefaultConfig returns the documented dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		FlushInterval:  5 * time.Second,
		ActiveErrorTTL: time.Minute,
	}
}
