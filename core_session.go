package authcore

import (
	"time"
)

// CreateSession describes the createsession operation and its observable behavior.
//
// CreateSession may return an error when input validation, dependency calls, or security checks fail.
// CreateSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) CreateSession(sessionID, userID string, timeoutOverride time.Duration) Session {
	s := c.sessions.Create(sessionID, userID, timeoutOverride)
	c.metricInc(MetricSessionCreated)
	return s
}

// UpdateActivity describes the updateactivity operation and its observable behavior.
//
// UpdateActivity may return an error when input validation, dependency calls, or security checks fail.
// UpdateActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) UpdateActivity(sessionID string, activity ActivityType) bool {
	return c.sessions.UpdateActivity(sessionID, activity)
}

// ExtendSession describes the extendsession operation and its observable behavior.
//
// ExtendSession may return an error when input validation, dependency calls, or security checks fail.
// ExtendSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) ExtendSession(sessionID string, durationOverride time.Duration) bool {
	return c.sessions.Extend(sessionID, durationOverride)
}

// RenewSession describes the renewsession operation and its observable behavior.
//
// RenewSession may return an error when input validation, dependency calls, or security checks fail.
// RenewSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RenewSession(sessionID string) bool {
	return c.sessions.Renew(sessionID)
}

// ExpireSession describes the expiresession operation and its observable behavior.
//
// ExpireSession may return an error when input validation, dependency calls, or security checks fail.
// ExpireSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) ExpireSession(sessionID, reason string) {
	c.sessions.Expire(sessionID, reason)
}

// RemoveSession describes the removesession operation and its observable behavior.
//
// RemoveSession may return an error when input validation, dependency calls, or security checks fail.
// RemoveSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RemoveSession(sessionID string) bool {
	return c.sessions.Remove(sessionID)
}

// IsSessionValid describes the issessionvalid operation and its observable behavior.
//
// IsSessionValid may return an error when input validation, dependency calls, or security checks fail.
// IsSessionValid does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) IsSessionValid(sessionID string) bool {
	return c.sessions.IsValid(sessionID)
}

// GetTimeRemaining describes the gettimeremaining operation and its observable behavior.
//
// GetTimeRemaining may return an error when input validation, dependency calls, or security checks fail.
// GetTimeRemaining does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetTimeRemaining(sessionID string) (time.Duration, bool) {
	return c.sessions.TimeRemaining(sessionID)
}

// NeedsWarning describes the needswarning operation and its observable behavior.
//
// NeedsWarning may return an error when input validation, dependency calls, or security checks fail.
// NeedsWarning does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) NeedsWarning(sessionID string) bool {
	return c.sessions.NeedsWarning(sessionID)
}

// MarkWarningShown describes the markwarningshown operation and its observable behavior.
//
// MarkWarningShown may return an error when input validation, dependency calls, or security checks fail.
// MarkWarningShown does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) MarkWarningShown(sessionID string) bool {
	return c.sessions.MarkWarningShown(sessionID)
}

// GetSession describes the getsession operation and its observable behavior.
//
// GetSession may return an error when input validation, dependency calls, or security checks fail.
// GetSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetSession(sessionID string) (Session, bool) {
	return c.sessions.Get(sessionID)
}

// SessionCount describes the sessioncount operation and its observable behavior.
//
// SessionCount may return an error when input validation, dependency calls, or security checks fail.
// SessionCount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) SessionCount() int {
	return c.sessions.Count()
}

// Authenticated describes the authenticated operation and its observable behavior.
//
// Authenticated may return an error when input validation, dependency calls, or security checks fail.
// Authenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Authenticated() bool {
	return c.sessions.Authenticated()
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// SignOut does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) SignOut(reason string) {
	c.forceLogout(reason)
}

// Subscribe describes the subscribe operation and its observable behavior.
//
// Subscribe may return an error when input validation, dependency calls, or security checks fail.
// Subscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Subscribe(t SessionEventType, fn SessionListener) uint64 {
	return c.sessions.Subscribe(t, fn)
}

// Unsubscribe describes the unsubscribe operation and its observable behavior.
//
// Unsubscribe may return an error when input validation, dependency calls, or security checks fail.
// Unsubscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Unsubscribe(id uint64) bool {
	return c.sessions.Unsubscribe(id)
}
