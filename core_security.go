package authcore

import (
	"context"
	"time"

	"github.com/trinitylabs/authcore/security"
)

// RecordFailedAttempt describes the recordfailedattempt operation and its observable behavior.
//
// RecordFailedAttempt may return an error when input validation, dependency calls, or security checks fail.
// RecordFailedAttempt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RecordFailedAttempt(ctx context.Context, sc SecurityContext) (SecurityEvent, error) {
	return c.monitor.RecordFailedAttempt(ctx, sc)
}

// CheckSuspiciousLogin describes the checksuspiciouslogin operation and its observable behavior.
//
// CheckSuspiciousLogin may return an error when input validation, dependency calls, or security checks fail.
// CheckSuspiciousLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) CheckSuspiciousLogin(ctx context.Context, sc SecurityContext) (bool, SecurityEvent, error) {
	return c.monitor.CheckSuspiciousLogin(ctx, sc)
}

// CheckRateLimit describes the checkratelimit operation and its observable behavior.
//
// CheckRateLimit may return an error when input validation, dependency calls, or security checks fail.
// CheckRateLimit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) CheckRateLimit(ctx context.Context, identifier, action string, limit int, window time.Duration) (bool, error) {
	return c.monitor.CheckRateLimit(ctx, identifier, action, limit, window)
}

// LockAccount describes the lockaccount operation and its observable behavior.
//
// LockAccount may return an error when input validation, dependency calls, or security checks fail.
// LockAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) LockAccount(userID, reason string, duration time.Duration) SecurityEvent {
	return c.monitor.LockAccount(userID, reason, duration)
}

// UnlockAccount describes the unlockaccount operation and its observable behavior.
//
// UnlockAccount may return an error when input validation, dependency calls, or security checks fail.
// UnlockAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) UnlockAccount(userID string) bool {
	return c.monitor.UnlockAccount(userID)
}

// IsAccountLocked describes the isaccountlocked operation and its observable behavior.
//
// IsAccountLocked may return an error when input validation, dependency calls, or security checks fail.
// IsAccountLocked does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) IsAccountLocked(userID string) bool {
	return c.monitor.IsAccountLocked(userID)
}

// GetSecurityEvents describes the getsecurityevents operation and its observable behavior.
//
// GetSecurityEvents may return an error when input validation, dependency calls, or security checks fail.
// GetSecurityEvents does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetSecurityEvents(f SecurityFilter) []SecurityEvent {
	return c.monitor.Events(f)
}

// ResolveSecurityEvent describes the resolvesecurityevent operation and its observable behavior.
//
// ResolveSecurityEvent may return an error when input validation, dependency calls, or security checks fail.
// ResolveSecurityEvent does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) ResolveSecurityEvent(id, note string) error {
	return c.monitor.ResolveEvent(id, note)
}

// GetSecurityMetrics describes the getsecuritymetrics operation and its observable behavior.
//
// GetSecurityMetrics may return an error when input validation, dependency calls, or security checks fail.
// GetSecurityMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetSecurityMetrics() SecurityMetrics {
	return c.monitor.Metrics()
}

// RiskScore describes the riskscore operation and its observable behavior.
//
// RiskScore may return an error when input validation, dependency calls, or security checks fail.
// RiskScore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RiskScore(userID string) int {
	return c.monitor.RiskScore(userID)
}

// GetBehaviorProfile describes the getbehaviorprofile operation and its observable behavior.
//
// GetBehaviorProfile may return an error when input validation, dependency calls, or security checks fail.
// GetBehaviorProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetBehaviorProfile(userID string) (security.Profile, bool) {
	return c.monitor.GetProfile(userID)
}
