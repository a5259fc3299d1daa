package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/dispatch"
	"github.com/trinitylabs/authcore/internal/audit"
	"github.com/trinitylabs/authcore/internal/sched"
	"github.com/trinitylabs/authcore/resilience"
	"github.com/trinitylabs/authcore/security"
	"github.com/trinitylabs/authcore/session"
)

// Core defines a public type used by authcore APIs.
//
// Core instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Core struct {
	config      Config
	sched       sched.Scheduler
	log         zerolog.Logger
	invalidator Invalidator

	sessions   *session.Manager
	monitor    *security.Monitor
	network    *resilience.Coordinator
	dispatcher *dispatch.Dispatcher

	metrics *Metrics
	audit   *audit.Dispatcher
}

// Status defines a public type used by authcore APIs.
//
// Status instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Status struct {
	Authenticated    bool
	LiveSessions     int
	Online           bool
	ConnectionType   string
	LastSync         time.Time
	LockedAccounts   int
	UnresolvedEvents int
	ThreatIPs        int
	ActiveErrors     int
	AuditDropped     uint64
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Close() {
	if c == nil {
		return
	}
	if c.dispatcher != nil {
		c.dispatcher.Stop()
	}
	if c.monitor != nil {
		c.monitor.Stop()
	}
	if c.sessions != nil {
		c.sessions.Stop()
	}
	if c.network != nil {
		c.network.Close()
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
// Status does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) Status() Status {
	sec := c.monitor.Metrics()
	return Status{
		Authenticated:    c.sessions.Authenticated(),
		LiveSessions:     c.sessions.Count(),
		Online:           c.network.IsConnected(),
		ConnectionType:   c.network.ConnectionType(),
		LastSync:         c.network.LastSync(),
		LockedAccounts:   sec.LockedAccounts,
		UnresolvedEvents: sec.UnresolvedEvents,
		ThreatIPs:        sec.ThreatIPs,
		ActiveErrors:     len(c.dispatcher.ActiveErrors()),
		AuditDropped:     c.audit.Dropped(),
	}
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Core) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Core) emitAudit(eventType, userID, sessionID, ip, severity, reason string, err error, metadata map[string]string) {
	if c.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: c.sched.Now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        ip,
		Severity:  severity,
		Reason:    reason,
		Metadata:  metadata,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.audit.Emit(context.Background(), ev)
}

// forceLogout is the dispatcher's logout capability: drop the authenticated
// flag, expire live sessions, and leave an audit trail.
func (c *Core) forceLogout(reason string) {
	if reason == "" {
		reason = session.ReasonForcedLogout
	}
	c.metricInc(MetricForcedLogout)
	c.emitAudit("forced_logout", "", "", "", "", reason, nil, nil)
	c.sessions.ForceLogout(reason)
}

// wireObservers connects session events, retry attempts, sync passes,
// security detections, and dispatch results to metrics and audit. Assembly
// only; runs once inside Build.
func (c *Core) wireObservers() {
	c.sessions.Subscribe(session.EventRenewed, func(ev SessionEvent) {
		c.metricInc(MetricSessionRenewed)
		if ev.UserID != "" {
			c.monitor.NoteSessionRenewed(ev.UserID)
		}
		c.emitAudit("session_renewed", ev.UserID, ev.SessionID, "", "", "", nil, nil)
	})
	c.sessions.Subscribe(session.EventExtended, func(ev SessionEvent) {
		c.metricInc(MetricSessionExtended)
		c.emitAudit("session_extended", ev.UserID, ev.SessionID, "", "", "", nil, nil)
	})
	c.sessions.Subscribe(session.EventWarning, func(ev SessionEvent) {
		c.metricInc(MetricWarningShown)
		c.emitAudit("session_warning", ev.UserID, ev.SessionID, "", "", "", nil, nil)
	})
	c.sessions.Subscribe(session.EventExpired, func(ev SessionEvent) {
		c.metricInc(MetricSessionExpired)
		if ev.Reason == session.ReasonIdleTimeout {
			c.metricInc(MetricSessionIdleExpired)
		}
		c.emitAudit("session_expired", ev.UserID, ev.SessionID, "", "", ev.Reason, nil, nil)

		if snap, ok := c.sessions.Get(ev.SessionID); ok && snap.UserID != "" {
			c.monitor.NoteSessionEnded(snap.UserID, snap.ExpiredAt.Sub(snap.CreatedAt), snap.ActivityScore)
		}
		if c.invalidator != nil {
			// The expired broadcast is the contract point for cache owners.
			if err := c.invalidator.InvalidateCaches(context.Background(), ev.SessionID, ev.Reason); err != nil {
				c.log.Warn().Err(err).Str("session_id", ev.SessionID).
					Msg("cache invalidation failed on session expiry")
			}
		}
	})

	c.network.SetAttemptHook(func(name string, attempt int, err error) {
		c.metricInc(MetricRetryAttempt)
		if err == nil {
			return
		}
		if errors.Is(err, autherr.ErrOffline) {
			c.metricInc(MetricOfflineGated)
		}
		if attempt >= c.config.Resilience.Retry.MaxAttempts || !autherr.Retryable(err) {
			c.metricInc(MetricRetryExhausted)
		}
	})
	c.network.SetSyncHook(func(err error) {
		if err == nil {
			c.metricInc(MetricSyncSuccess)
			c.emitAudit("auth_state_synced", "", "", "", "", "", nil, nil)
			return
		}
		c.metricInc(MetricSyncFailure)
		c.emitAudit("auth_state_sync_failed", "", "", "", "", "", err, nil)
	})

	c.monitor.SetEventHook(func(ev SecurityEvent) {
		switch ev.Type {
		case security.EventFailedLogin:
			c.metricInc(MetricFailedLogin)
		case security.EventMultipleFailedAttempts, security.EventAccountLocked:
			c.metricInc(MetricLockout)
		case security.EventSuspiciousLogin:
			c.metricInc(MetricSuspiciousLogin)
		case security.EventRateLimitExceeded:
			c.metricInc(MetricRateLimitHit)
		case security.EventBruteForceAttack:
			c.metricInc(MetricBruteForceDetected)
		}
		c.emitAudit(string(ev.Type), ev.UserID, ev.SessionID, ev.IPAddress,
			string(ev.Severity), "", nil, ev.Details)
	})

	c.dispatcher.SetResultHook(func(ec ErrorContext, code string, res ErrorHandlingResult) {
		if res.Handled {
			c.metricInc(MetricErrorHandled)
		} else {
			c.metricInc(MetricErrorUnhandled)
		}
	})
}
