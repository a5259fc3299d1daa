package authcore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/dispatch"
	"github.com/trinitylabs/authcore/internal/audit"
	"github.com/trinitylabs/authcore/internal/ledger"
	"github.com/trinitylabs/authcore/internal/sched"
	"github.com/trinitylabs/authcore/resilience"
	"github.com/trinitylabs/authcore/security"
	"github.com/trinitylabs/authcore/session"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider IdentityProvider
	conn     Connectivity
	store    TokenStore

	auditSink   AuditSink
	logger      zerolog.Logger
	loggerSet   bool
	scheduler   sched.Scheduler
	invalidator Invalidator
	notifier    Notifier
	redirector  Redirector

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityProvider describes the withidentityprovider operation and its observable behavior.
//
// WithIdentityProvider may return an error when input validation, dependency calls, or security checks fail.
// WithIdentityProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithConnectivity describes the withconnectivity operation and its observable behavior.
//
// WithConnectivity may return an error when input validation, dependency calls, or security checks fail.
// WithConnectivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConnectivity(c Connectivity) *Builder {
	b.conn = c
	return b
}

// WithTokenStore describes the withtokenstore operation and its observable behavior.
//
// WithTokenStore may return an error when input validation, dependency calls, or security checks fail.
// WithTokenStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenStore(s TokenStore) *Builder {
	b.store = s
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.loggerSet = true
	return b
}

// WithScheduler describes the withscheduler operation and its observable behavior.
//
// WithScheduler may return an error when input validation, dependency calls, or security checks fail.
// WithScheduler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithScheduler(s sched.Scheduler) *Builder {
	b.scheduler = s
	return b
}

// WithInvalidator describes the withinvalidator operation and its observable behavior.
//
// WithInvalidator may return an error when input validation, dependency calls, or security checks fail.
// WithInvalidator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithInvalidator(inv Invalidator) *Builder {
	b.invalidator = inv
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithRedirector describes the withredirector operation and its observable behavior.
//
// WithRedirector may return an error when input validation, dependency calls, or security checks fail.
// WithRedirector does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedirector(r Redirector) *Builder {
	b.redirector = r
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Core, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}
	if b.conn == nil {
		return nil, errors.New("connectivity source required")
	}
	if b.store == nil {
		return nil, errors.New("token store required")
	}

	logger := b.logger
	if !b.loggerSet {
		logger = zerolog.Nop()
	}

	scheduler := b.scheduler
	if scheduler == nil {
		scheduler = sched.NewTimers()
	}

	var windows ledger.Store
	if b.redis != nil {
		windows = ledger.NewRedisStore(b.redis, "authcore")
	}
	led := ledger.New(windows)

	core := &Core{
		config:      cfg,
		sched:       scheduler,
		log:         logger,
		invalidator: b.invalidator,
	}

	core.metrics = NewMetrics(cfg.Metrics)
	core.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink, logger)

	core.monitor = security.NewMonitor(cfg.Security, led, scheduler, logger)
	core.sessions = session.NewManager(cfg.Session, scheduler, logger)
	core.network = resilience.NewCoordinator(cfg.Resilience, b.provider, b.conn, b.store, scheduler, logger)

	// Warning-window token refresh goes through the retry machinery so a
	// flaky link does not burn the session.
	core.sessions.SetRefresher(func(ctx context.Context) error {
		return core.network.ExecuteWithRetry(ctx, "token_refresh", b.provider.RefreshTokens, nil)
	})

	deps := dispatch.Deps{
		ForceLogout: core.forceLogout,
		ClearCache: func(ctx context.Context) error {
			err := b.store.ClearTokens(ctx)
			if b.invalidator != nil {
				if invErr := b.invalidator.InvalidateCaches(ctx, "", "clear_cache"); invErr != nil && err == nil {
					err = invErr
				}
			}
			return err
		},
	}
	if b.notifier != nil {
		deps.Notify = b.notifier.Notify
	}
	if b.redirector != nil {
		deps.Redirect = b.redirector.Redirect
	}
	core.dispatcher = dispatch.New(cfg.Dispatch, deps, scheduler, logger)

	core.wireObservers()

	b.built = true

	return core, nil
}
