package authcore

import (
	"context"

	"github.com/google/uuid"

	"github.com/trinitylabs/authcore/dispatch"
	"github.com/trinitylabs/authcore/resilience"
	"github.com/trinitylabs/authcore/security"
	"github.com/trinitylabs/authcore/session"
)

// Tokens defines a public type used by authcore APIs.
//
// Tokens instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Tokens = resilience.Tokens

// IdentityProvider defines a public type used by authcore APIs.
//
// IdentityProvider instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type IdentityProvider = resilience.IdentityProvider

// Connectivity defines a public type used by authcore APIs.
//
// Connectivity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Connectivity = resilience.Connectivity

// TokenStore defines a public type used by authcore APIs.
//
// TokenStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenStore = resilience.TokenStore

// RetryConfig defines a public type used by authcore APIs.
//
// RetryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RetryConfig = resilience.RetryConfig

// Session defines a public type used by authcore APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session = session.Session

// ActivityType defines a public type used by authcore APIs.
//
// ActivityType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ActivityType = session.ActivityType

const (
	// ActivityUserInteraction is an exported constant or variable used by the resilience core.
	ActivityUserInteraction = session.ActivityUserInteraction
	// ActivityAPICall is an exported constant or variable used by the resilience core.
	ActivityAPICall = session.ActivityAPICall
	// ActivityBackgroundTask is an exported constant or variable used by the resilience core.
	ActivityBackgroundTask = session.ActivityBackgroundTask
	// ActivityHeartbeat is an exported constant or variable used by the resilience core.
	ActivityHeartbeat = session.ActivityHeartbeat
)

// SessionEvent defines a public type used by authcore APIs.
//
// SessionEvent instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionEvent = session.Event

// SessionEventType defines a public type used by authcore APIs.
//
// SessionEventType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionEventType = session.EventType

// SessionListener defines a public type used by authcore APIs.
//
// SessionListener instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionListener = session.Listener

// SecurityContext defines a public type used by authcore APIs.
//
// SecurityContext instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityContext = security.Context

// SecurityEvent defines a public type used by authcore APIs.
//
// SecurityEvent instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityEvent = security.Event

// SecurityFilter defines a public type used by authcore APIs.
//
// SecurityFilter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityFilter = security.Filter

// SecurityMetrics defines a public type used by authcore APIs.
//
// SecurityMetrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityMetrics = security.Metrics

// ErrorContext defines a public type used by authcore APIs.
//
// ErrorContext instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ErrorContext = dispatch.Context

// ErrorHandler defines a public type used by authcore APIs.
//
// ErrorHandler instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ErrorHandler = dispatch.Handler

// ErrorHandlingResult defines a public type used by authcore APIs.
//
// ErrorHandlingResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ErrorHandlingResult = dispatch.Result

// RecoveryAction defines a public type used by authcore APIs.
//
// RecoveryAction instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RecoveryAction = dispatch.Action

// ActiveError defines a public type used by authcore APIs.
//
// ActiveError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ActiveError = dispatch.ActiveError

// Invalidator defines a public type used by authcore APIs.
//
// Invalidator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Invalidator interface {
	InvalidateCaches(ctx context.Context, sessionID, reason string) error
}

// Notifier defines a public type used by authcore APIs.
//
// Notifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Notifier interface {
	Notify(message string, metadata map[string]string)
}

// Redirector defines a public type used by authcore APIs.
//
// Redirector instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redirector interface {
	Redirect(target string) error
}

// NewSessionID describes the newsessionid operation and its observable behavior.
//
// NewSessionID may return an error when input validation, dependency calls, or security checks fail.
// NewSessionID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSessionID() string {
	return uuid.NewString()
}
