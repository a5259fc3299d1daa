package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/internal/sched"
)

type stubProvider struct {
	mu          sync.Mutex
	refreshErr  error
	validateErr error
	refreshes   int
}

func (p *stubProvider) RefreshTokens(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
	return p.refreshErr
}

func (p *stubProvider) ValidateAuthState(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validateErr
}

type stubConn struct {
	mu     sync.Mutex
	online bool
	ctype  string
}

func (c *stubConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *stubConn) ConnectionType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctype
}

func (c *stubConn) Subscribe(fn func(online bool)) (cancel func()) {
	return func() {}
}

type stubStore struct {
	mu      sync.Mutex
	tokens  Tokens
	cleared int
}

func (s *stubStore) RetrieveTokens(ctx context.Context) (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *stubStore) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

func (s *stubStore) clearedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type coreFixture struct {
	core     *Core
	clock    *sched.Manual
	sink     *ChannelSink
	provider *stubProvider
	conn     *stubConn
	store    *stubStore
}

func newTestCore(t *testing.T) *coreFixture {
	t.Helper()

	f := &coreFixture{
		clock:    sched.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		sink:     NewChannelSink(256),
		provider: &stubProvider{},
		conn:     &stubConn{online: true, ctype: "wifi"},
		store:    &stubStore{},
	}

	core, err := New().
		WithIdentityProvider(f.provider).
		WithConnectivity(f.conn).
		WithTokenStore(f.store).
		WithScheduler(f.clock).
		WithAuditSink(f.sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f.core = core
	t.Cleanup(core.Close)
	return f
}

// drainAudit collects every event buffered in the sink. Call after Close so
// the dispatcher has flushed its queue.
func (f *coreFixture) drainAudit() []AuditEvent {
	var out []AuditEvent
	for {
		select {
		case ev := <-f.sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func auditTypes(events []AuditEvent) map[string]int {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.EventType]++
	}
	return counts
}

func TestBuild_RequiresCollaborators(t *testing.T) {
	if _, err := New().Build(); err == nil || err.Error() != "identity provider required" {
		t.Fatalf("expected identity provider error, got %v", err)
	}

	b := New().WithIdentityProvider(&stubProvider{})
	if _, err := b.Build(); err == nil || err.Error() != "connectivity source required" {
		t.Fatalf("expected connectivity error, got %v", err)
	}

	b = New().
		WithIdentityProvider(&stubProvider{}).
		WithConnectivity(&stubConn{online: true})
	if _, err := b.Build(); err == nil || err.Error() != "token store required" {
		t.Fatalf("expected token store error, got %v", err)
	}
}

func TestBuild_RejectsReuse(t *testing.T) {
	b := New().
		WithIdentityProvider(&stubProvider{}).
		WithConnectivity(&stubConn{online: true}).
		WithTokenStore(&stubStore{}).
		WithScheduler(sched.NewManual(time.Now()))

	core, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer core.Close()

	if _, err := b.Build(); err == nil || err.Error() != "builder already used" {
		t.Fatalf("expected reuse error, got %v", err)
	}
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.Timeout = 0

	_, err := New().
		WithConfig(cfg).
		WithIdentityProvider(&stubProvider{}).
		WithConnectivity(&stubConn{online: true}).
		WithTokenStore(&stubStore{}).
		Build()
	if err == nil || err.Error() != "Session Timeout must be positive" {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func TestCreateSession_AuthenticatesAndCounts(t *testing.T) {
	f := newTestCore(t)

	s := f.core.CreateSession("s1", "u1", 0)
	if s.SessionID != "s1" || s.UserID != "u1" {
		t.Fatalf("unexpected session snapshot: %+v", s)
	}
	if !f.core.Authenticated() {
		t.Fatal("expected authenticated after session creation")
	}
	if !f.core.IsSessionValid("s1") {
		t.Fatal("expected fresh session to be valid")
	}
	if got := f.core.SessionCount(); got != 1 {
		t.Fatalf("expected 1 live session, got %d", got)
	}

	snap := f.core.MetricsSnapshot()
	if snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("expected 1 created, got %d", snap.Counters[MetricSessionCreated])
	}
	// Creation replays through the renewed listener as well.
	if snap.Counters[MetricSessionRenewed] != 1 {
		t.Fatalf("expected 1 renewed, got %d", snap.Counters[MetricSessionRenewed])
	}
}

func TestSignOut_ForcesLogoutEverywhere(t *testing.T) {
	f := newTestCore(t)

	f.core.CreateSession("s1", "u1", 0)
	f.core.SignOut("user_request")

	if f.core.Authenticated() {
		t.Fatal("expected unauthenticated after sign-out")
	}
	if f.core.IsSessionValid("s1") {
		t.Fatal("expected session invalid after sign-out")
	}

	snap := f.core.MetricsSnapshot()
	if snap.Counters[MetricForcedLogout] != 1 {
		t.Fatalf("expected 1 forced logout, got %d", snap.Counters[MetricForcedLogout])
	}
	if snap.Counters[MetricSessionExpired] != 1 {
		t.Fatalf("expected 1 expired, got %d", snap.Counters[MetricSessionExpired])
	}
	if snap.Counters[MetricSessionIdleExpired] != 0 {
		t.Fatalf("sign-out must not count as idle expiry, got %d", snap.Counters[MetricSessionIdleExpired])
	}

	f.core.Close()
	types := auditTypes(f.drainAudit())
	if types["forced_logout"] != 1 {
		t.Fatalf("expected 1 forced_logout audit event, got %d", types["forced_logout"])
	}
	if types["session_expired"] != 1 {
		t.Fatalf("expected 1 session_expired audit event, got %d", types["session_expired"])
	}
}

func TestHandleError_ReauthCodeForcesLogout(t *testing.T) {
	f := newTestCore(t)
	f.core.CreateSession("s1", "u1", 0)

	err := autherr.New(autherr.ClassAuthentication, autherr.CodeTokenExpired, "access token expired")
	res := f.core.HandleError(context.Background(), err, ErrorContext{
		Service:   "authentication",
		Operation: "api_call",
	})

	if !res.Handled {
		t.Fatal("expected error to be handled")
	}
	if !res.RequiresReauth {
		t.Fatal("expected reauth requirement for expired token")
	}
	if f.core.Authenticated() {
		t.Fatal("expected forced logout to drop authentication")
	}
	if got := f.store.clearedCount(); got != 1 {
		t.Fatalf("expected 1 token clear, got %d", got)
	}

	snap := f.core.MetricsSnapshot()
	if snap.Counters[MetricErrorHandled] != 1 {
		t.Fatalf("expected 1 handled error, got %d", snap.Counters[MetricErrorHandled])
	}
	// Propagation to the auth service plus the logout action both fire.
	if snap.Counters[MetricForcedLogout] != 2 {
		t.Fatalf("expected 2 forced logouts, got %d", snap.Counters[MetricForcedLogout])
	}

	active := f.core.GetActiveErrors()
	if len(active) != 1 {
		t.Fatalf("expected 1 active error stream, got %d", len(active))
	}
}

func TestHandleError_NetworkCodeLeavesAuthAlone(t *testing.T) {
	f := newTestCore(t)
	f.core.CreateSession("s1", "u1", 0)

	err := autherr.New(autherr.ClassNetwork, autherr.CodeNetworkTimeout, "request timed out")
	res := f.core.HandleError(context.Background(), err, ErrorContext{
		Service:   "storage",
		Operation: "fetch",
	})

	if !res.Handled || !res.Retry {
		t.Fatalf("expected handled retryable result, got %+v", res)
	}
	if !f.core.Authenticated() {
		t.Fatal("network failure must not drop authentication")
	}
	if got := f.store.clearedCount(); got != 0 {
		t.Fatalf("network failure must not clear tokens, got %d clears", got)
	}
}

func TestExecuteWithRetry_CountsAttempts(t *testing.T) {
	f := newTestCore(t)

	opErr := autherr.New(autherr.ClassNetwork, autherr.CodeServiceUnavailable, "upstream down")
	calls := 0
	err := f.core.ExecuteWithRetry(context.Background(), "profile_fetch", func(ctx context.Context) error {
		calls++
		return opErr
	}, nil)
	if err == nil {
		t.Fatal("expected exhausted retries to fail")
	}
	if calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", calls)
	}
	if got := f.clock.Slept(); len(got) != 4 {
		t.Fatalf("expected 4 backoff sleeps, got %v", got)
	}

	snap := f.core.MetricsSnapshot()
	if snap.Counters[MetricRetryAttempt] != 5 {
		t.Fatalf("expected 5 attempt samples, got %d", snap.Counters[MetricRetryAttempt])
	}
	if snap.Counters[MetricRetryExhausted] != 1 {
		t.Fatalf("expected 1 exhaustion, got %d", snap.Counters[MetricRetryExhausted])
	}
}

func TestSecurityEvents_FeedMetricsAndAudit(t *testing.T) {
	f := newTestCore(t)

	for i := 0; i < 4; i++ {
		if _, err := f.core.RecordFailedAttempt(context.Background(), SecurityContext{
			UserID:    "u1",
			IPAddress: "10.0.0.9",
		}); err != nil {
			t.Fatalf("RecordFailedAttempt failed: %v", err)
		}
	}

	snap := f.core.MetricsSnapshot()
	if snap.Counters[MetricFailedLogin] != 4 {
		t.Fatalf("expected 4 failed logins, got %d", snap.Counters[MetricFailedLogin])
	}
	if snap.Counters[MetricLockout] != 0 {
		t.Fatalf("expected no lockout below threshold, got %d", snap.Counters[MetricLockout])
	}

	// Fifth failure crosses the default threshold and escalates.
	if _, err := f.core.RecordFailedAttempt(context.Background(), SecurityContext{
		UserID:    "u1",
		IPAddress: "10.0.0.9",
	}); err != nil {
		t.Fatalf("RecordFailedAttempt failed: %v", err)
	}
	if !f.core.IsAccountLocked("u1") {
		t.Fatal("expected account locked at threshold")
	}

	snap = f.core.MetricsSnapshot()
	if snap.Counters[MetricLockout] != 1 {
		t.Fatalf("expected 1 lockout, got %d", snap.Counters[MetricLockout])
	}

	f.core.Close()
	types := auditTypes(f.drainAudit())
	if types["failed_login"] != 4 {
		t.Fatalf("expected 4 failed_login audit events, got %d", types["failed_login"])
	}
	if types["multiple_failed_attempts"] != 1 {
		t.Fatalf("expected 1 escalation audit event, got %d", types["multiple_failed_attempts"])
	}
}

func TestStatus_AggregatesSubsystems(t *testing.T) {
	f := newTestCore(t)

	f.core.CreateSession("s1", "u1", 0)
	f.core.LockAccount("mallory", "manual_review", time.Hour)

	st := f.core.Status()
	if !st.Authenticated {
		t.Fatal("expected authenticated status")
	}
	if st.LiveSessions != 1 {
		t.Fatalf("expected 1 live session, got %d", st.LiveSessions)
	}
	if !st.Online || st.ConnectionType != "wifi" {
		t.Fatalf("unexpected connectivity status: online=%v type=%q", st.Online, st.ConnectionType)
	}
	if st.LockedAccounts != 1 {
		t.Fatalf("expected 1 locked account, got %d", st.LockedAccounts)
	}
	if st.UnresolvedEvents == 0 {
		t.Fatal("expected the lock event to be unresolved")
	}
	if st.ActiveErrors != 0 {
		t.Fatalf("expected no active errors, got %d", st.ActiveErrors)
	}
	if st.AuditDropped != 0 {
		t.Fatalf("expected no dropped audit events, got %d", st.AuditDropped)
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty session IDs")
	}
	if a == b {
		t.Fatalf("expected unique session IDs, got %q twice", a)
	}
}
