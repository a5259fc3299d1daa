// Package autherr defines the typed error model shared by every authcore
// component. Foreign errors enter the system exactly once, through
// [Classify], and travel as [*Error] values afterwards; no component inspects
// error strings opportunistically.
package autherr

import (
	"context"
	"errors"
	"net"
)

// Class buckets an error into the core taxonomy: authentication errors imply
// the credential is bad, session errors that the local session is no longer
// trustworthy, network errors that the operation may be retried, security
// errors that a defensive response fired.
type Class uint8

const (
	// ClassUnknown is the fallback bucket for unclassified failures.
	ClassUnknown Class = iota
	// ClassAuthentication covers invalid or expired credentials.
	ClassAuthentication
	// ClassSession covers expired, invalid, or idle-timed-out sessions.
	ClassSession
	// ClassNetwork covers connectivity, timeout, and transient service failures.
	ClassNetwork
	// ClassSecurity covers rate-limited, suspicious, and locked conditions.
	ClassSecurity
)

func (c Class) String() string {
	switch c {
	case ClassAuthentication:
		return "authentication"
	case ClassSession:
		return "session"
	case ClassNetwork:
		return "network"
	case ClassSecurity:
		return "security"
	default:
		return "unknown"
	}
}

// Stable error codes. Handlers match on these, never on message text.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeTokenExpired       = "token_expired"
	CodeTokenInvalid       = "token_invalid"
	CodeRefreshFailed      = "refresh_failed"

	CodeSessionExpired = "session_expired"
	CodeSessionInvalid = "session_invalid"
	CodeIdleTimeout    = "idle_timeout"

	CodeNetworkUnavailable = "network_unavailable"
	CodeNetworkTimeout     = "network_timeout"
	CodeServiceUnavailable = "service_unavailable"

	CodeRateLimited        = "rate_limited"
	CodeAccountLocked      = "account_locked"
	CodeSuspiciousActivity = "suspicious_activity"

	CodeCancelled = "operation_cancelled"
	CodeUnknown   = "UnknownError"
)

// reauthCodes is the closed set of codes that force re-authentication.
var reauthCodes = map[string]struct{}{
	CodeInvalidCredentials: {},
	CodeTokenExpired:       {},
	CodeTokenInvalid:       {},
	CodeRefreshFailed:      {},
}

// IsReauthCode reports whether code belongs to the closed requires-re-auth set.
func IsReauthCode(code string) bool {
	_, ok := reauthCodes[code]
	return ok
}

// Error is the tagged error union carried inside the core.
type Error struct {
	Code      string
	Class     Class
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error with no wrapped cause.
func New(class Class, code, message string) *Error {
	return &Error{Code: code, Class: class, Message: message, Retryable: class == ClassNetwork}
}

// Wrap creates a typed error around a foreign cause.
func Wrap(class Class, code, message string, err error) *Error {
	out := New(class, code, message)
	out.Err = err
	return out
}

// Sentinel errors used across components.
var (
	// ErrOffline is returned when an attempt is gated on connectivity.
	ErrOffline = errors.New("device offline")
	// ErrSyncInProgress is returned when a reconnect sync pass is already running.
	ErrSyncInProgress = errors.New("auth state sync already in progress")
	// ErrConnectionTimeout is returned by WaitForConnection when the budget elapses.
	ErrConnectionTimeout = errors.New("timed out waiting for connection")
	// ErrSessionNotFound is returned for operations on unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned for operations on inactive sessions.
	ErrSessionExpired = errors.New("session expired")
	// ErrAccountLocked is returned when an operation targets a locked account.
	ErrAccountLocked = errors.New("account locked")
	// ErrRateLimited is returned when a rate window is exhausted.
	ErrRateLimited = errors.New("rate limited")
)

// Classify maps an arbitrary error into the typed union. Typed errors pass
// through unchanged. This is the single entry point for foreign errors.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	switch {
	case errors.Is(err, ErrOffline):
		return Wrap(ClassNetwork, CodeNetworkUnavailable, "device is offline", err)
	case errors.Is(err, ErrConnectionTimeout):
		return Wrap(ClassNetwork, CodeNetworkTimeout, "connection wait timed out", err)
	case errors.Is(err, ErrSessionNotFound):
		out := Wrap(ClassSession, CodeSessionInvalid, "session not found", err)
		out.Retryable = false
		return out
	case errors.Is(err, ErrSessionExpired):
		out := Wrap(ClassSession, CodeSessionExpired, "session expired", err)
		out.Retryable = false
		return out
	case errors.Is(err, ErrAccountLocked):
		return Wrap(ClassSecurity, CodeAccountLocked, "account locked", err)
	case errors.Is(err, ErrRateLimited):
		return Wrap(ClassSecurity, CodeRateLimited, "rate limited", err)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ClassNetwork, CodeNetworkTimeout, "operation deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		out := Wrap(ClassUnknown, CodeCancelled, "operation cancelled", err)
		out.Retryable = false
		return out
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		code := CodeServiceUnavailable
		if netErr.Timeout() {
			code = CodeNetworkTimeout
		}
		return Wrap(ClassNetwork, code, netErr.Error(), err)
	}

	out := Wrap(ClassUnknown, CodeUnknown, err.Error(), err)
	out.Retryable = true
	return out
}

// CodeOf extracts the stable code for dispatch matching: the typed code when
// present, the message otherwise, CodeUnknown as the last resort.
func CodeOf(err error) string {
	if err == nil {
		return CodeUnknown
	}
	var typed *Error
	if errors.As(err, &typed) && typed.Code != "" {
		return typed.Code
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return CodeUnknown
}

// Retryable reports whether err may be retried. Credential-class failures and
// cancellations never are; unclassified failures default to retryable so the
// resilience layer gets a chance.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Retryable
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return Classify(err).Retryable
}
