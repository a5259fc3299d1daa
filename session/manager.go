package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/internal/sched"
)

// Expiry reasons recorded on sessions leaving Active.
const (
	ReasonTimeout      = "timeout"
	ReasonIdleTimeout  = "idle_timeout"
	ReasonForcedLogout = "forced_logout"
	ReasonReplaced     = "replaced"
)

// Refresher is invoked best-effort when a session enters the warning window,
// so tokens are refreshed before expiry. Wired to the resilience coordinator.
type Refresher func(ctx context.Context) error

const sweepKey = "session:sweep"

func warnKey(id string) string   { return "session:warn:" + id }
func expireKey(id string) string { return "session:expire:" + id }

// Manager owns the session table and the per-session timers.
type Manager struct {
	cfg       Config
	sched     sched.Scheduler
	log       zerolog.Logger
	refresher Refresher

	authenticated atomic.Bool

	mu           sync.Mutex
	live         map[string]*Session
	retired      map[string]*Session
	nextListener uint64
	listeners    map[EventType][]listenerReg
}

// NewManager creates a Manager and arms the periodic idle sweep.
func NewManager(cfg Config, scheduler sched.Scheduler, logger zerolog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg,
		sched:     scheduler,
		log:       logger.With().Str("component", "session").Logger(),
		live:      make(map[string]*Session),
		retired:   make(map[string]*Session),
		listeners: make(map[EventType][]listenerReg),
	}
	m.sched.Schedule(sweepKey, m.cfg.ActivityCheckInterval, m.sweep)
	return m
}

// SetRefresher wires the pre-expiry token refresh hook. Must be called during
// assembly, before sessions are created.
func (m *Manager) SetRefresher(fn Refresher) {
	m.refresher = fn
}

// Authenticated reports the manager-owned logical login flag. It is the
// single source of truth for "is the user still logged in".
func (m *Manager) Authenticated() bool {
	return m.authenticated.Load()
}

// Create initializes a session expiring after timeoutOverride (or the
// configured timeout when zero), schedules its warning and expiry callbacks,
// and emits a renewed event. An existing live session under the same id is
// first expired with reason "replaced"; its post-mortem record stays in the
// retired table for the retention window, shadowed by the new live session
// in Get until the new session itself retires under the same id.
func (m *Manager) Create(sessionID, userID string, timeoutOverride time.Duration) Session {
	m.Expire(sessionID, ReasonReplaced)

	timeout := timeoutOverride
	if timeout <= 0 {
		timeout = m.cfg.Timeout
	}
	now := m.sched.Now()

	s := &Session{
		SessionID:     sessionID,
		UserID:        userID,
		CreatedAt:     now,
		LastActivity:  now,
		ExpiresAt:     now.Add(timeout),
		Active:        true,
		ActivityScore: maxActivityScore,
	}

	m.mu.Lock()
	m.live[sessionID] = s
	snap := *s
	m.mu.Unlock()

	m.authenticated.Store(true)
	m.scheduleTimers(snap.SessionID, snap.ExpiresAt)
	m.notify(m.event(EventRenewed, snap, ""))
	return snap
}

// UpdateActivity bumps last activity and the engagement score, and triggers
// an automatic extension when the session sits in the warning window with
// extensions remaining. Returns false for unknown or inactive sessions.
func (m *Manager) UpdateActivity(sessionID string, activity ActivityType) bool {
	now := m.sched.Now()

	m.mu.Lock()
	s, ok := m.live[sessionID]
	if !ok || !s.Active {
		m.mu.Unlock()
		return false
	}
	s.LastActivity = now
	s.ActivityScore += activity.weight()
	if s.ActivityScore > maxActivityScore {
		s.ActivityScore = maxActivityScore
	}
	autoExtend := m.cfg.AutoExtend &&
		!now.Before(s.ExpiresAt.Add(-m.cfg.WarningWindow)) &&
		s.ExtensionsUsed < m.cfg.MaxExtensions
	snap := *s
	m.mu.Unlock()

	m.notify(m.event(EventActivity, snap, string(activity)))
	if autoExtend {
		m.Extend(sessionID, 0)
	}
	return true
}

// Extend adds the extension duration to max(expiresAt, now) and reschedules
// both timers. Returns false, with no state change, once the extension
// budget is spent.
func (m *Manager) Extend(sessionID string, durationOverride time.Duration) bool {
	d := durationOverride
	if d <= 0 {
		d = m.cfg.ExtensionDuration
	}
	now := m.sched.Now()

	m.mu.Lock()
	s, ok := m.live[sessionID]
	if !ok || !s.Active || s.ExtensionsUsed >= m.cfg.MaxExtensions {
		m.mu.Unlock()
		return false
	}
	base := s.ExpiresAt
	if base.Before(now) {
		base = now
	}
	s.ExpiresAt = base.Add(d)
	s.ExtensionsUsed++
	snap := *s
	m.mu.Unlock()

	m.scheduleTimers(snap.SessionID, snap.ExpiresAt)
	m.notify(m.event(EventExtended, snap, ""))
	return true
}

// Renew fully resets the session: fresh expiry, extension budget, and
// activity score, as after a successful re-authentication.
func (m *Manager) Renew(sessionID string) bool {
	now := m.sched.Now()

	m.mu.Lock()
	s, ok := m.live[sessionID]
	if !ok || !s.Active {
		m.mu.Unlock()
		return false
	}
	s.ExpiresAt = now.Add(m.cfg.Timeout)
	s.ExtensionsUsed = 0
	s.ActivityScore = maxActivityScore
	s.LastActivity = now
	s.WarningShownAt = time.Time{}
	snap := *s
	m.mu.Unlock()

	m.scheduleTimers(snap.SessionID, snap.ExpiresAt)
	m.notify(m.event(EventRenewed, snap, ""))
	return true
}

// Expire retires the session. Idempotent: the first call wins, records the
// reason, cancels pending timers, and emits the expired event exactly once;
// later calls (including a racing forced logout) are no-ops.
func (m *Manager) Expire(sessionID, reason string) {
	now := m.sched.Now()

	m.mu.Lock()
	s, ok := m.live[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	s.Active = false
	s.ExpiredReason = reason
	s.ExpiredAt = now
	delete(m.live, sessionID)
	m.retired[sessionID] = s
	snap := *s
	m.mu.Unlock()

	m.sched.Cancel(warnKey(sessionID))
	m.sched.Cancel(expireKey(sessionID))
	m.notify(m.event(EventExpired, snap, reason))
}

// ForceLogout drops the authenticated flag and expires every live session.
// Sessions that already expired in the same tick keep their original reason;
// idle/absolute expiry wins the race by design.
func (m *Manager) ForceLogout(reason string) {
	m.authenticated.Store(false)

	m.mu.Lock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Expire(id, reason)
	}
}

// Remove destroys a session record entirely, live or retired, without
// emitting events. Used for explicit deletion rather than expiry.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	_, wasLive := m.live[sessionID]
	_, wasRetired := m.retired[sessionID]
	delete(m.live, sessionID)
	delete(m.retired, sessionID)
	m.mu.Unlock()

	if wasLive {
		m.sched.Cancel(warnKey(sessionID))
		m.sched.Cancel(expireKey(sessionID))
	}
	return wasLive || wasRetired
}

// IsValid reports whether the session is live, active, and unexpired.
func (m *Manager) IsValid(sessionID string) bool {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	return ok && s.Active && now.Before(s.ExpiresAt)
}

// TimeRemaining returns the time until absolute expiry, zero-floored.
func (m *Manager) TimeRemaining(sessionID string) (time.Duration, bool) {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok {
		return 0, false
	}
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// NeedsWarning reports whether the session sits in the warning window and no
// warning was shown within the last WarningWindow/2.
func (m *Manager) NeedsWarning(sessionID string) bool {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok || !s.Active {
		return false
	}
	if now.Before(s.ExpiresAt.Add(-m.cfg.WarningWindow)) {
		return false
	}
	return m.warningDue(s, now)
}

// MarkWarningShown records that the UI surfaced the expiry warning.
func (m *Manager) MarkWarningShown(sessionID string) bool {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok {
		return false
	}
	s.WarningShownAt = now
	return true
}

// Get returns a snapshot of a live or recently retired session.
func (m *Manager) Get(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.live[sessionID]; ok {
		return *s, true
	}
	if s, ok := m.retired[sessionID]; ok {
		return *s, true
	}
	return Session{}, false
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Stop cancels every timer owned by the manager.
func (m *Manager) Stop() {
	m.sched.Cancel(sweepKey)
	m.mu.Lock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.sched.Cancel(warnKey(id))
		m.sched.Cancel(expireKey(id))
	}
}

// warningDue applies the suppression rule. Caller holds m.mu.
func (m *Manager) warningDue(s *Session, now time.Time) bool {
	if s.WarningShownAt.IsZero() {
		return true
	}
	return now.Sub(s.WarningShownAt) >= m.cfg.WarningWindow/2
}

// scheduleTimers (re)arms the warning and expiry callbacks for sessionID
// against the given expiry, replacing any pending ones.
func (m *Manager) scheduleTimers(sessionID string, expiresAt time.Time) {
	now := m.sched.Now()

	warnIn := expiresAt.Add(-m.cfg.WarningWindow).Sub(now)
	if warnIn < 0 {
		warnIn = 0
	}
	m.sched.Schedule(warnKey(sessionID), warnIn, func() { m.onWarning(sessionID) })

	expireIn := expiresAt.Sub(now)
	if m.cfg.GraceEnabled {
		expireIn += m.cfg.GracePeriod
	}
	if expireIn < 0 {
		expireIn = 0
	}
	m.sched.Schedule(expireKey(sessionID), expireIn, func() { m.onExpiry(sessionID) })
}

func (m *Manager) onWarning(sessionID string) {
	now := m.sched.Now()

	m.mu.Lock()
	s, ok := m.live[sessionID]
	if !ok || !s.Active || !m.warningDue(s, now) {
		m.mu.Unlock()
		return
	}
	s.WarningShownAt = now
	snap := *s
	m.mu.Unlock()

	m.notify(m.event(EventWarning, snap, ""))

	if m.refresher != nil {
		go func() {
			if err := m.refresher(context.Background()); err != nil {
				m.log.Warn().Err(err).Str("session_id", sessionID).
					Msg("pre-expiry token refresh failed")
			}
		}()
	}
}

func (m *Manager) onExpiry(sessionID string) {
	m.Expire(sessionID, ReasonTimeout)
}

// sweep runs the periodic idle check: sessions idle past IdleTimeout expire
// with reason idle_timeout, idle activity scores decay linearly toward zero,
// and retired sessions past retention are dropped. Re-arms itself.
func (m *Manager) sweep() {
	now := m.sched.Now()
	decay := int(maxActivityScore * m.cfg.ActivityCheckInterval / m.cfg.DecayWindow)
	if decay < 1 {
		decay = 1
	}

	m.mu.Lock()
	var idle []string
	for id, s := range m.live {
		idleFor := now.Sub(s.LastActivity)
		if idleFor >= m.cfg.IdleTimeout {
			idle = append(idle, id)
			continue
		}
		if idleFor >= m.cfg.ActivityCheckInterval && s.ActivityScore > 0 {
			s.ActivityScore -= decay
			if s.ActivityScore < 0 {
				s.ActivityScore = 0
			}
		}
	}
	for id, s := range m.retired {
		if now.Sub(s.ExpiredAt) >= m.cfg.Retention {
			delete(m.retired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		m.Expire(id, ReasonIdleTimeout)
	}

	m.sched.Schedule(sweepKey, m.cfg.ActivityCheckInterval, m.sweep)
}

func (m *Manager) event(t EventType, s Session, reason string) Event {
	now := m.sched.Now()
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Event{
		Type:           t,
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		Reason:         reason,
		Timestamp:      now,
		TimeRemaining:  remaining,
		ExtensionsUsed: s.ExtensionsUsed,
		ActivityScore:  s.ActivityScore,
	}
}
