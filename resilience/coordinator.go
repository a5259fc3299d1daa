package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/internal/sched"
)

// Tokens is the opaque token bundle held by the secure store.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	LastSync     time.Time
}

// IdentityProvider is the remote identity service consumed by the core.
type IdentityProvider interface {
	RefreshTokens(ctx context.Context) error
	ValidateAuthState(ctx context.Context) error
}

// Connectivity reports device connectivity and transition events.
type Connectivity interface {
	IsConnected() bool
	ConnectionType() string
	Subscribe(fn func(online bool)) (cancel func())
}

// TokenStore is the tamper-resistant platform token persistence.
type TokenStore interface {
	RetrieveTokens(ctx context.Context) (Tokens, error)
	ClearTokens(ctx context.Context) error
}

// RetryConfig holds backoff tuning for one retryable operation.
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// Config holds coordinator tuning parameters.
type Config struct {
	Retry                RetryConfig
	OfflineTokenValidity time.Duration
}

// DefaultConfig returns the documented resilience defaults.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts:   5,
			BaseDelay:     time.Second,
			BackoffFactor: 2,
			MaxDelay:      30 * time.Second,
		},
		OfflineTokenValidity: 24 * time.Hour,
	}
}

// AttemptHook observes every retry attempt outcome (nil err on success).
type AttemptHook func(name string, attempt int, err error)

// SyncHook observes the outcome of each reconnect sync pass.
type SyncHook func(err error)

// Coordinator tracks connectivity and executes retryable auth operations.
type Coordinator struct {
	cfg      Config
	provider IdentityProvider
	conn     Connectivity
	store    TokenStore
	clock    sched.Clock
	log      zerolog.Logger

	onAttempt AttemptHook
	onSync    SyncHook

	syncing   atomic.Bool
	cancelSub func()

	mu       sync.Mutex
	wasOn    bool
	onlineCh chan struct{}
	lastSync time.Time
}

// NewCoordinator wires a coordinator to its collaborators and subscribes to
// connectivity transitions. Call Close to release the subscription.
func NewCoordinator(cfg Config, provider IdentityProvider, conn Connectivity, store TokenStore, clock sched.Clock, logger zerolog.Logger) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		provider: provider,
		conn:     conn,
		store:    store,
		clock:    clock,
		log:      logger.With().Str("component", "resilience").Logger(),
		onlineCh: make(chan struct{}),
		wasOn:    conn.IsConnected(),
	}
	c.cancelSub = conn.Subscribe(c.onTransition)
	return c
}

// SetAttemptHook wires an observer for retry attempts. Assembly-time only.
func (c *Coordinator) SetAttemptHook(fn AttemptHook) { c.onAttempt = fn }

// SetSyncHook wires an observer for sync passes. Assembly-time only.
func (c *Coordinator) SetSyncHook(fn SyncHook) { c.onSync = fn }

// IsConnected reports current connectivity.
func (c *Coordinator) IsConnected() bool {
	return c.conn.IsConnected()
}

// ConnectionType returns the connectivity source's type hint.
func (c *Coordinator) ConnectionType() string {
	return c.conn.ConnectionType()
}

// LastSync returns the time of the last successful auth state sync.
func (c *Coordinator) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// onTransition reacts to connectivity changes. The offline→online edge wakes
// connection waiters and kicks off a reconnect sync pass.
func (c *Coordinator) onTransition(online bool) {
	c.mu.Lock()
	was := c.wasOn
	c.wasOn = online
	var wake chan struct{}
	if online && !was {
		wake = c.onlineCh
		c.onlineCh = make(chan struct{})
	}
	c.mu.Unlock()

	if wake == nil {
		return
	}
	close(wake)
	go func() {
		if err := c.SyncAuthState(context.Background()); err != nil && err != autherr.ErrSyncInProgress {
			c.log.Warn().Err(err).Msg("reconnect sync failed")
		}
	}()
}

// WaitForConnection blocks until the device is online, the timeout elapses
// (ErrConnectionTimeout), or ctx is done.
func (c *Coordinator) WaitForConnection(ctx context.Context, timeout time.Duration) error {
	if c.conn.IsConnected() {
		return nil
	}
	c.mu.Lock()
	ch := c.onlineCh
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return autherr.ErrConnectionTimeout
	}
}

// ExecuteWithRetry runs op up to MaxAttempts times under the given config
// (nil selects the coordinator default). Offline attempts fail without a
// network call; non-retryable failures short-circuit; the last failure is
// returned as-is.
func (c *Coordinator) ExecuteWithRetry(ctx context.Context, name string, op func(ctx context.Context) error, override *RetryConfig) error {
	rc := c.cfg.Retry
	if override != nil {
		rc = *override
	}
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= rc.MaxAttempts; attempt++ {
		if !c.conn.IsConnected() {
			lastErr = autherr.Wrap(autherr.ClassNetwork, autherr.CodeNetworkUnavailable,
				"device offline", autherr.ErrOffline)
		} else {
			lastErr = op(ctx)
		}

		if c.onAttempt != nil {
			c.onAttempt(name, attempt, lastErr)
		}
		if lastErr == nil {
			return nil
		}

		c.log.Debug().Str("operation", name).Int("attempt", attempt).
			Err(lastErr).Msg("retryable operation failed")

		if !autherr.Retryable(lastErr) {
			return lastErr
		}
		if attempt < rc.MaxAttempts {
			if err := c.clock.Sleep(ctx, backoffDelay(rc, attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// backoffDelay returns min(base·factor^(attempt−1), cap) for a just-failed
// attempt number.
func backoffDelay(rc RetryConfig, attempt int) time.Duration {
	d := float64(rc.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= rc.BackoffFactor
	}
	if rc.MaxDelay > 0 && d > float64(rc.MaxDelay) {
		return rc.MaxDelay
	}
	return time.Duration(d)
}

// SyncAuthState forces a token refresh followed by a re-validation of stored
// auth state. Single-flight: a concurrent call returns ErrSyncInProgress.
func (c *Coordinator) SyncAuthState(ctx context.Context) error {
	if !c.syncing.CompareAndSwap(false, true) {
		return autherr.ErrSyncInProgress
	}
	defer c.syncing.Store(false)

	err := c.ExecuteWithRetry(ctx, "token_refresh", c.provider.RefreshTokens, nil)
	if err == nil {
		err = c.ExecuteWithRetry(ctx, "auth_state_validation", c.provider.ValidateAuthState, nil)
	}

	if err == nil {
		c.mu.Lock()
		c.lastSync = c.clock.Now()
		c.mu.Unlock()
		c.log.Info().Msg("auth state synchronized")
	}
	if c.onSync != nil {
		c.onSync(err)
	}
	return err
}

// Close releases the connectivity subscription.
func (c *Coordinator) Close() {
	if c.cancelSub != nil {
		c.cancelSub()
	}
}
