package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/internal/sched"
)

type fakeProvider struct {
	refresh  func(ctx context.Context) error
	validate func(ctx context.Context) error
}

func (f *fakeProvider) RefreshTokens(ctx context.Context) error {
	if f.refresh == nil {
		return nil
	}
	return f.refresh(ctx)
}

func (f *fakeProvider) ValidateAuthState(ctx context.Context) error {
	if f.validate == nil {
		return nil
	}
	return f.validate(ctx)
}

type fakeConn struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int
}

func newFakeConn(online bool) *fakeConn {
	return &fakeConn{online: online, subs: make(map[int]func(bool))}
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeConn) ConnectionType() string { return "wifi" }

func (f *fakeConn) Subscribe(fn func(online bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeConn) set(online bool) {
	f.mu.Lock()
	f.online = online
	subs := make([]func(bool), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(online)
	}
}

type fakeStore struct {
	tokens Tokens
	err    error
}

func (f *fakeStore) RetrieveTokens(context.Context) (Tokens, error) { return f.tokens, f.err }
func (f *fakeStore) ClearTokens(context.Context) error              { return nil }

func newTestCoordinator(t *testing.T, cfg Config, provider *fakeProvider, conn *fakeConn, store *fakeStore) (*Coordinator, *sched.Manual) {
	t.Helper()
	if provider == nil {
		provider = &fakeProvider{}
	}
	if conn == nil {
		conn = newFakeConn(true)
	}
	if store == nil {
		store = &fakeStore{}
	}
	clock := sched.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	c := NewCoordinator(cfg, provider, conn, store, clock, zerolog.Nop())
	t.Cleanup(c.Close)
	return c, clock
}

func TestExecuteWithRetry_ExhaustsAttemptsWithBackoff(t *testing.T) {
	failure := errors.New("transient failure")
	var calls int
	provider := &fakeProvider{}
	c, clock := newTestCoordinator(t, DefaultConfig(), provider, nil, nil)

	err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
		calls++
		return failure
	}, nil)

	if !errors.Is(err, failure) {
		t.Fatalf("expected the last failure back, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("attempts = %d, want 5", calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	got := clock.Slept()
	if len(got) != len(want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExecuteWithRetry_DelayCapsAtMax(t *testing.T) {
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, nil)

	rc := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, BackoffFactor: 10, MaxDelay: 30 * time.Second}
	_ = c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
		return errors.New("still failing")
	}, rc)

	want := []time.Duration{time.Second, 10 * time.Second, 30 * time.Second, 30 * time.Second}
	got := clock.Slept()
	if len(got) != len(want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExecuteWithRetry_StopsOnSuccess(t *testing.T) {
	var calls int
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, nil)

	err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("attempts = %d, want 3", calls)
	}
	if got := clock.Slept(); len(got) != 2 {
		t.Fatalf("sleeps = %v, want two", got)
	}
}

func TestExecuteWithRetry_NonRetryableShortCircuits(t *testing.T) {
	var calls int
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, nil)

	bad := autherr.New(autherr.ClassAuthentication, autherr.CodeInvalidCredentials, "bad password")
	err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
		calls++
		return bad
	}, nil)

	if !errors.Is(err, bad) {
		t.Fatalf("expected the credential failure back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("attempts = %d, want 1", calls)
	}
	if len(clock.Slept()) != 0 {
		t.Fatal("non-retryable failure must not back off")
	}
}

func TestExecuteWithRetry_OfflineGateSkipsOperation(t *testing.T) {
	conn := newFakeConn(false)
	var calls int
	var hookErrs []error
	c, _ := newTestCoordinator(t, DefaultConfig(), nil, conn, nil)
	c.SetAttemptHook(func(name string, attempt int, err error) {
		hookErrs = append(hookErrs, err)
	})

	err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, BackoffFactor: 2, MaxDelay: time.Second})

	if calls != 0 {
		t.Fatal("offline gate must not invoke the operation")
	}
	if !errors.Is(err, autherr.ErrOffline) {
		t.Fatalf("expected ErrOffline in the chain, got %v", err)
	}
	if len(hookErrs) != 2 {
		t.Fatalf("attempt hook saw %d attempts, want 2", len(hookErrs))
	}
	for _, herr := range hookErrs {
		if !errors.Is(herr, autherr.ErrOffline) {
			t.Fatalf("hook error = %v, want offline", herr)
		}
	}
}

func TestExecuteWithRetry_ContextCancelAbortsBackoff(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultConfig(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := c.ExecuteWithRetry(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("attempts = %d, want 1", calls)
	}
}

func TestSyncAuthState_SingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := &fakeProvider{
		refresh: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	}
	c, _ := newTestCoordinator(t, DefaultConfig(), provider, nil, nil)

	done := make(chan error, 1)
	go func() { done <- c.SyncAuthState(context.Background()) }()

	<-started
	if err := c.SyncAuthState(context.Background()); !errors.Is(err, autherr.ErrSyncInProgress) {
		t.Fatalf("concurrent sync = %v, want ErrSyncInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	if c.LastSync().IsZero() {
		t.Fatal("successful sync must record LastSync")
	}
}

func TestSyncAuthState_HookObservesOutcome(t *testing.T) {
	failure := autherr.New(autherr.ClassAuthentication, autherr.CodeRefreshFailed, "refresh rejected")
	provider := &fakeProvider{refresh: func(context.Context) error { return failure }}
	c, _ := newTestCoordinator(t, DefaultConfig(), provider, nil, nil)

	var hookErr error
	c.SetSyncHook(func(err error) { hookErr = err })

	if err := c.SyncAuthState(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("sync error = %v", err)
	}
	if !errors.Is(hookErr, failure) {
		t.Fatalf("hook error = %v", hookErr)
	}
	if !c.LastSync().IsZero() {
		t.Fatal("failed sync must not record LastSync")
	}
}

func TestOnlineTransition_TriggersReconnectSync(t *testing.T) {
	synced := make(chan struct{})
	provider := &fakeProvider{refresh: func(context.Context) error {
		close(synced)
		return nil
	}}
	conn := newFakeConn(false)
	c, _ := newTestCoordinator(t, DefaultConfig(), provider, conn, nil)

	conn.set(true)

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("offline to online transition did not trigger a sync")
	}
	if !c.IsConnected() {
		t.Fatal("coordinator should report online after the transition")
	}
}

func TestOnlineTransition_IgnoresOnlineToOnline(t *testing.T) {
	var syncs int
	var mu sync.Mutex
	provider := &fakeProvider{refresh: func(context.Context) error {
		mu.Lock()
		syncs++
		mu.Unlock()
		return nil
	}}
	conn := newFakeConn(true)
	c, _ := newTestCoordinator(t, DefaultConfig(), provider, conn, nil)

	conn.set(true)
	conn.set(true)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if syncs != 0 {
		t.Fatalf("online to online transitions triggered %d syncs", syncs)
	}
	if !c.LastSync().IsZero() {
		t.Fatal("no sync pass should have recorded LastSync")
	}
}

func TestWaitForConnection_TimesOut(t *testing.T) {
	conn := newFakeConn(false)
	c, _ := newTestCoordinator(t, DefaultConfig(), nil, conn, nil)

	err := c.WaitForConnection(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, autherr.ErrConnectionTimeout) {
		t.Fatalf("expected ErrConnectionTimeout, got %v", err)
	}
}

func TestWaitForConnection_WakesOnTransition(t *testing.T) {
	conn := newFakeConn(false)
	c, _ := newTestCoordinator(t, DefaultConfig(), nil, conn, nil)

	done := make(chan error, 1)
	go func() { done <- c.WaitForConnection(context.Background(), 5*time.Second) }()

	time.Sleep(20 * time.Millisecond)
	conn.set(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForConnection failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by the transition")
	}
}

func TestWaitForConnection_AlreadyOnlineReturnsImmediately(t *testing.T) {
	c, _ := newTestCoordinator(t, DefaultConfig(), nil, newFakeConn(true), nil)
	if err := c.WaitForConnection(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("WaitForConnection = %v", err)
	}
}

// signedToken builds a real HS256 token with the given expiry claim.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestIsOfflineAuthValid_FreshTokenAndRecentSync(t *testing.T) {
	store := &fakeStore{}
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, store)
	now := clock.Now()

	store.tokens = Tokens{
		AccessToken: signedToken(t, now.Add(time.Hour)),
		LastSync:    now.Add(-time.Hour),
	}

	if !c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("fresh token with recent sync should be valid offline")
	}
}

func TestIsOfflineAuthValid_StaleSyncFails(t *testing.T) {
	store := &fakeStore{}
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, store)
	now := clock.Now()

	store.tokens = Tokens{
		AccessToken: signedToken(t, now.Add(time.Hour)),
		LastSync:    now.Add(-25 * time.Hour),
	}

	if c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("sync older than the validity window must fail")
	}
}

func TestIsOfflineAuthValid_ExpiredTokenFails(t *testing.T) {
	store := &fakeStore{}
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, store)
	now := clock.Now()

	store.tokens = Tokens{
		AccessToken: signedToken(t, now.Add(-time.Minute)),
		LastSync:    now.Add(-time.Hour),
	}

	if c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("expired access token must fail offline validation")
	}
}

func TestIsOfflineAuthValid_MissingTokenOrSyncFails(t *testing.T) {
	store := &fakeStore{}
	c, clock := newTestCoordinator(t, DefaultConfig(), nil, nil, store)

	if c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("empty store must fail offline validation")
	}

	store.tokens = Tokens{AccessToken: signedToken(t, clock.Now().Add(time.Hour))}
	if c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("token with no sync record must fail offline validation")
	}

	store.tokens = Tokens{AccessToken: "not-a-jwt", LastSync: clock.Now()}
	if c.IsOfflineAuthValid(context.Background()) {
		t.Fatal("malformed token must fail offline validation")
	}
}
