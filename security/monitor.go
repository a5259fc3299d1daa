package security

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/internal/ledger"
	"github.com/trinitylabs/authcore/internal/sched"
)

// Attempt-window action names kept in the ledger.
const (
	actionFailedLogin = "failed_login"
	maintenanceKey    = "security:maintenance"
)

// ErrEventNotFound is returned when resolving an unknown event ID.
var ErrEventNotFound = errors.New("security: event not found")

// EventHook observes every recorded security event. Wired at assembly time;
// called synchronously with the monitor lock released.
type EventHook func(ev Event)

// Monitor detects authentication anomalies and owns the security event log.
type Monitor struct {
	cfg    Config
	ledger *ledger.Ledger
	sched  sched.Scheduler
	log    zerolog.Logger

	onEvent EventHook

	mu       sync.Mutex
	events   []*Event
	profiles map[string]*Profile
}

// NewMonitor creates a monitor over the given ledger and arms the periodic
// maintenance sweep. Call Stop to disarm it.
func NewMonitor(cfg Config, led *ledger.Ledger, scheduler sched.Scheduler, logger zerolog.Logger) *Monitor {
	if led == nil {
		led = ledger.New(nil)
	}
	m := &Monitor{
		cfg:      cfg,
		ledger:   led,
		sched:    scheduler,
		log:      logger.With().Str("component", "security").Logger(),
		profiles: make(map[string]*Profile),
	}
	m.sched.Schedule(maintenanceKey, cfg.MonitoringInterval, m.maintain)
	return m
}

// SetEventHook wires an observer for recorded events. Assembly-time only.
func (m *Monitor) SetEventHook(fn EventHook) { m.onEvent = fn }

// Stop disarms the maintenance sweep.
func (m *Monitor) Stop() {
	m.sched.Cancel(maintenanceKey)
}

// record appends a fully-populated event, bumps the owning profile's risk,
// and fires the hook. Caller must NOT hold m.mu.
func (m *Monitor) record(ev Event) Event {
	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.sched.Now()
	}

	m.mu.Lock()
	cp := ev
	m.events = append(m.events, &cp)
	if ev.UserID != "" {
		if p, ok := m.profiles[ev.UserID]; ok {
			p.raiseRisk(ev.Severity)
			p.logAnomaly(string(ev.Type) + "@" + ev.Timestamp.Format(time.RFC3339))
		}
	}
	m.mu.Unlock()

	m.log.Info().
		Str("event_id", ev.ID).
		Str("type", string(ev.Type)).
		Str("severity", string(ev.Severity)).
		Str("user_id", ev.UserID).
		Str("ip", ev.IPAddress).
		Msg("security event")

	if m.onEvent != nil {
		m.onEvent(ev)
	}
	return ev
}

func eventFromContext(t EventType, sev Severity, c Context) Event {
	return Event{
		Type:              t,
		Severity:          sev,
		UserID:            c.UserID,
		SessionID:         c.SessionID,
		IPAddress:         c.IPAddress,
		UserAgent:         c.UserAgent,
		Location:          c.Location,
		DeviceFingerprint: c.DeviceFingerprint,
	}
}

// RecordFailedAttempt folds one failed login into the rolling attempt window.
// Reaching the threshold produces a single multiple_failed_attempts event,
// resets the window, and with automatic response enabled locks the account.
func (m *Monitor) RecordFailedAttempt(ctx context.Context, c Context) (Event, error) {
	identifier := c.UserID
	if identifier == "" {
		identifier = c.IPAddress
	}
	now := m.sched.Now()

	count, err := m.ledger.RecordAttempt(ctx, identifier, actionFailedLogin, now, m.cfg.FailedAttemptWindow)
	if err != nil {
		return Event{}, err
	}

	if count >= m.cfg.MaxFailedAttempts {
		// One threshold event per burst: the window restarts so the next
		// failure counts from one again.
		if err := m.ledger.ResetAttempts(ctx, identifier, actionFailedLogin); err != nil {
			m.log.Warn().Err(err).Str("identifier", identifier).Msg("attempt window reset failed")
		}

		ev := eventFromContext(EventMultipleFailedAttempts, SeverityHigh, c)
		ev.Details = map[string]string{
			"attempts": strconv.Itoa(count),
			"window":   m.cfg.FailedAttemptWindow.String(),
		}
		if m.cfg.AutoRespond && c.UserID != "" {
			m.ledger.LockAccount(c.UserID, now, string(EventMultipleFailedAttempts), m.cfg.LockoutDuration)
			ev.ResponseActions = []string{"lock_account"}
		}
		return m.record(ev), nil
	}

	ev := eventFromContext(EventFailedLogin, SeverityLow, c)
	ev.Details = map[string]string{"attempts": strconv.Itoa(count)}
	return m.record(ev), nil
}

// CheckSuspiciousLogin scores a successful login against the user's behavior
// baseline. The first observed login for a user seeds the profile and is
// never suspicious. The current login is folded into the baseline only after
// evaluation.
func (m *Monitor) CheckSuspiciousLogin(ctx context.Context, c Context) (bool, Event, error) {
	if c.UserID == "" {
		return false, Event{}, nil
	}
	now := m.sched.Now()

	m.mu.Lock()
	p, seen := m.profiles[c.UserID]
	if !seen {
		p = newProfile(c.UserID, now)
		m.profiles[c.UserID] = p
		p.observe(now, c)
		m.mu.Unlock()
		return false, Event{}, nil
	}
	factors := p.suspiciousFactors(c, now, m.ledger, m.cfg.BotPatterns)
	p.observe(now, c)
	m.mu.Unlock()

	if len(factors) < m.cfg.Sensitivity.factorThreshold() {
		return false, Event{}, nil
	}

	sev := SeverityMedium
	if len(factors) >= 3 {
		sev = SeverityHigh
	}
	ev := eventFromContext(EventSuspiciousLogin, sev, c)
	ev.Details = map[string]string{
		"factors":      strings.Join(factors, ","),
		"factor_count": strconv.Itoa(len(factors)),
	}
	return true, m.record(ev), nil
}

// CheckRateLimit reports whether (identifier, action) has hit limit requests
// in window. A blocked call records a rate_limit_exceeded event and does NOT
// consume a slot; an allowed call records the request.
func (m *Monitor) CheckRateLimit(ctx context.Context, identifier, action string, limit int, window time.Duration) (bool, error) {
	now := m.sched.Now()
	count, err := m.ledger.CountAttempts(ctx, identifier, action, now, window)
	if err != nil {
		return false, err
	}
	if count >= limit {
		ev := Event{
			Type:      EventRateLimitExceeded,
			Severity:  SeverityMedium,
			IPAddress: identifier,
			Details: map[string]string{
				"action": action,
				"limit":  strconv.Itoa(limit),
				"window": window.String(),
			},
		}
		m.record(ev)
		return true, nil
	}
	if _, err := m.ledger.RecordAttempt(ctx, identifier, action, now, window); err != nil {
		return false, err
	}
	return false, nil
}

// LockAccount locks userID for the configured lockout duration (or until
// manual unlock when duration is zero) and records an account_locked event.
func (m *Monitor) LockAccount(userID, reason string, duration time.Duration) Event {
	now := m.sched.Now()
	m.ledger.LockAccount(userID, now, reason, duration)
	ev := Event{
		Type:     EventAccountLocked,
		Severity: SeverityHigh,
		UserID:   userID,
		Details:  map[string]string{"reason": reason, "duration": duration.String()},
	}
	return m.record(ev)
}

// UnlockAccount clears userID's lock. A no-op when the account is not locked.
func (m *Monitor) UnlockAccount(userID string) bool {
	if !m.ledger.UnlockAccount(userID) {
		return false
	}
	m.record(Event{
		Type:     EventAccountUnlocked,
		Severity: SeverityLow,
		UserID:   userID,
	})
	return true
}

// IsAccountLocked reports whether userID is currently locked. Elapsed timed
// locks expire lazily here.
func (m *Monitor) IsAccountLocked(userID string) bool {
	return m.ledger.IsLocked(userID, m.sched.Now())
}

// CheckLocked returns ErrAccountLocked when userID is locked, nil otherwise.
func (m *Monitor) CheckLocked(userID string) error {
	if m.IsAccountLocked(userID) {
		return autherr.Wrap(autherr.ClassSecurity, autherr.CodeAccountLocked,
			"account temporarily locked", autherr.ErrAccountLocked)
	}
	return nil
}

// NoteSessionRenewed resets the user's risk score after a fully re-verified
// authentication. This is the only path that lowers risk.
func (m *Monitor) NoteSessionRenewed(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		p.RiskScore = 0
	}
}

// NoteSessionEnded folds a finished session's duration and activity score
// into the user's baseline averages.
func (m *Monitor) NoteSessionEnded(userID string, duration time.Duration, activityScore int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		p.noteSession(duration, activityScore)
	}
}

// RiskScore returns the current risk score for userID (0 when unknown).
func (m *Monitor) RiskScore(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p.RiskScore
	}
	return 0
}

// GetProfile returns a snapshot of the user's behavior profile.
func (m *Monitor) GetProfile(userID string) (Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, false
	}
	return p.snapshot(), true
}

// Events returns snapshots of logged events matching the filter, newest
// first.
func (m *Monitor) Events(f Filter) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		ev := m.events[i]
		if !f.matches(ev) {
			continue
		}
		out = append(out, *ev)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func (f Filter) matches(ev *Event) bool {
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if f.Severity != "" && ev.Severity != f.Severity {
		return false
	}
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	if f.IPAddress != "" && ev.IPAddress != f.IPAddress {
		return false
	}
	if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && ev.Timestamp.After(f.Until) {
		return false
	}
	if f.Unresolved && ev.Resolved {
		return false
	}
	return true
}

// ResolveEvent marks an event handled with an operator note.
func (m *Monitor) ResolveEvent(id, note string) error {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			ev.Resolved = true
			ev.ResolutionNote = note
			ev.ResolvedAt = now
			return nil
		}
	}
	return ErrEventNotFound
}

// Metrics returns a point-in-time posture summary.
func (m *Monitor) Metrics() Metrics {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Metrics{
		TotalEvents:      len(m.events),
		EventsByType:     make(map[EventType]int),
		EventsBySeverity: make(map[Severity]int),
		TrackedProfiles:  len(m.profiles),
	}
	for _, ev := range m.events {
		out.EventsByType[ev.Type]++
		out.EventsBySeverity[ev.Severity]++
		if !ev.Resolved {
			out.UnresolvedEvents++
		}
	}
	out.LockedAccounts = m.ledger.LockedCount(now)
	out.ThreatIPs = m.ledger.ThreatCount()
	return out
}

// maintain is the periodic sweep: retention pruning, coordinated-attack
// detection, threat-set upkeep. Re-arms itself.
func (m *Monitor) maintain() {
	now := m.sched.Now()
	cutoff := now.Add(-m.cfg.Retention)
	attackWindow := now.Add(-24 * time.Hour)

	m.mu.Lock()
	kept := m.events[:0]
	perIP := make(map[string]int)
	bruteSeen := make(map[string]bool)
	for _, ev := range m.events {
		// Unresolved events survive retention; resolved ones age out a full
		// retention window after resolution, not after detection.
		if ev.Resolved && ev.ResolvedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, ev)

		if ev.Timestamp.Before(attackWindow) || ev.IPAddress == "" {
			continue
		}
		if ev.Type == EventBruteForceAttack {
			bruteSeen[ev.IPAddress] = true
			continue
		}
		perIP[ev.IPAddress]++
		if ev.Severity == SeverityHigh || ev.Severity == SeverityCritical {
			m.ledger.AddThreat(ev.IPAddress, ev.Timestamp)
		}
	}
	m.events = kept
	m.mu.Unlock()

	for ip, n := range perIP {
		if n < m.cfg.AlertThreshold || bruteSeen[ip] {
			continue
		}
		m.ledger.AddThreat(ip, now)
		m.record(Event{
			Type:      EventBruteForceAttack,
			Severity:  SeverityCritical,
			IPAddress: ip,
			Details:   map[string]string{"event_count": strconv.Itoa(n)},
		})
	}

	m.ledger.PruneThreats(cutoff)
	m.sched.Schedule(maintenanceKey, m.cfg.MonitoringInterval, m.maintain)
}
