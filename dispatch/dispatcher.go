package dispatch

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trinitylabs/authcore/autherr"
	"github.com/trinitylabs/authcore/internal/sched"
)

const flushKey = "dispatch:flush"

// Deps are the recovery capabilities the dispatcher calls back into. Nil
// fields disable the corresponding action with a warning log.
type Deps struct {
	// ForceLogout drops the authenticated flag and expires live sessions.
	ForceLogout func(reason string)
	// ClearCache invalidates cached auth-derived state.
	ClearCache func(ctx context.Context) error
	// Notify surfaces a user-facing alert.
	Notify func(message string, metadata map[string]string)
	// Redirect sends the user to a target destination.
	Redirect func(target string) error
	// Retry re-runs the failed operation identified by the error context.
	Retry func(ctx context.Context, c Context) error
}

// ResultHook observes every HandleError outcome. Wired at assembly time.
type ResultHook func(c Context, code string, res Result)

// Dispatcher routes reported errors to handlers and executes recovery.
type Dispatcher struct {
	cfg   Config
	deps  Deps
	sched sched.Scheduler
	log   zerolog.Logger

	onResult ResultHook

	mu       sync.Mutex
	handlers map[string]Handler
	counters map[string]int          // service|code -> count in current window
	active   map[string]*ActiveError // service|code -> live aggregate
}

// New creates a dispatcher with the default handlers registered and the
// aggregation flush armed. Call Stop to disarm it.
func New(cfg Config, deps Deps, scheduler sched.Scheduler, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		deps:     deps,
		sched:    scheduler,
		log:      logger.With().Str("component", "dispatch").Logger(),
		handlers: make(map[string]Handler),
		counters: make(map[string]int),
		active:   make(map[string]*ActiveError),
	}
	for _, h := range defaultHandlers() {
		d.handlers[h.ID] = h
	}
	d.sched.Schedule(flushKey, cfg.FlushInterval, d.flush)
	return d
}

// SetResultHook wires an observer for handled errors. Assembly-time only.
func (d *Dispatcher) SetResultHook(fn ResultHook) { d.onResult = fn }

// Stop disarms the aggregation flush.
func (d *Dispatcher) Stop() {
	d.sched.Cancel(flushKey)
}

// Config returns the current dispatcher configuration.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetConfig replaces the dispatcher configuration and re-arms the aggregation
// flush under the new interval.
func (d *Dispatcher) SetConfig(cfg Config) {
	if cfg.FlushInterval <= 0 || cfg.ActiveErrorTTL <= 0 {
		return
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	d.sched.Schedule(flushKey, cfg.FlushInterval, d.flush)
}

// Register adds or replaces a handler under its ID.
func (d *Dispatcher) Register(h Handler) {
	if h.ID == "" || h.Handle == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[h.ID] = h
}

// Remove drops the handler with the given ID and reports whether it existed.
func (d *Dispatcher) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.handlers[id]
	delete(d.handlers, id)
	return ok
}

// Handlers returns the registered handlers, highest priority first.
func (d *Dispatcher) Handlers() []Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// HandleError routes err to the best matching handler, executes the decided
// recovery, and returns the result. It never fails: a missing or panicking
// handler degrades to the generic fallback result.
func (d *Dispatcher) HandleError(ctx context.Context, err error, c Context) Result {
	code := autherr.CodeOf(err)
	d.count(c.Service, code, err)

	res := d.run(d.selectHandler(c.Service, code), err, code, c)

	if propagatesAuth(res.PropagateTo) {
		// Single source of truth for the logged-in flag: propagation alone
		// drops it, whether or not a logout action also runs.
		if d.deps.ForceLogout != nil {
			d.deps.ForceLogout("error_propagation")
		}
	}

	d.execute(ctx, res, c)

	if d.onResult != nil {
		d.onResult(c, code, res)
	}
	return res
}

// selectHandler picks the highest-priority handler matching (service, code).
func (d *Dispatcher) selectHandler(service, code string) *Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	var best *Handler
	for id := range d.handlers {
		h := d.handlers[id]
		if !h.matches(service, code) {
			continue
		}
		if best == nil || h.Priority > best.Priority {
			cp := h
			best = &cp
		}
	}
	return best
}

// run invokes the handler, converting a panic or a nil handler into the
// generic fallback result.
func (d *Dispatcher) run(h *Handler, err error, code string, c Context) (res Result) {
	if h == nil {
		return fallbackResult(err)
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("handler_id", h.ID).
				Str("code", code).
				Interface("panic", r).
				Msg("error handler panicked")
			res = fallbackResult(err)
		}
	}()
	return h.Handle(err, code, c)
}

func fallbackResult(err error) Result {
	return Result{
		Handled: false,
		Retry:   autherr.Retryable(err),
		Message: "An unexpected error occurred. Please try again.",
	}
}

func propagatesAuth(services []string) bool {
	for _, s := range services {
		if s == "authentication" || s == "session" {
			return true
		}
	}
	return false
}

// execute runs the result's actions sequentially, lowest priority value
// first, honoring per-action delays. Failures are logged, never fatal.
func (d *Dispatcher) execute(ctx context.Context, res Result, c Context) {
	if len(res.Actions) == 0 {
		return
	}
	actions := make([]Action, len(res.Actions))
	copy(actions, res.Actions)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Priority < actions[j].Priority })

	for _, a := range actions {
		if a.Delay > 0 {
			if err := d.sched.Sleep(ctx, a.Delay); err != nil {
				d.log.Warn().Err(err).Msg("recovery aborted by context")
				return
			}
		}
		if err := d.runAction(ctx, a, res, c); err != nil {
			d.log.Warn().Err(err).Str("action", string(a.Kind)).Msg("recovery action failed")
		}
	}
}

func (d *Dispatcher) runAction(ctx context.Context, a Action, res Result, c Context) error {
	switch a.Kind {
	case ActionLogout:
		if d.deps.ForceLogout == nil {
			return errNoCapability("logout")
		}
		d.deps.ForceLogout(a.Metadata["reason"])
		return nil
	case ActionClearCache:
		if d.deps.ClearCache == nil {
			return errNoCapability("clear_cache")
		}
		return d.deps.ClearCache(ctx)
	case ActionNotifyUser:
		if d.deps.Notify == nil {
			return errNoCapability("notify_user")
		}
		msg := a.Metadata["message"]
		if msg == "" {
			msg = res.Message
		}
		d.deps.Notify(msg, a.Metadata)
		return nil
	case ActionRedirect:
		if d.deps.Redirect == nil {
			return errNoCapability("redirect")
		}
		return d.deps.Redirect(a.Metadata["target"])
	case ActionRetryOperation:
		if d.deps.Retry == nil {
			return errNoCapability("retry_operation")
		}
		return d.deps.Retry(ctx, c)
	default:
		d.log.Warn().Str("action", string(a.Kind)).Msg("unknown recovery action")
		return nil
	}
}

type errNoCapability string

func (e errNoCapability) Error() string {
	return "dispatch: no capability wired for action " + string(e)
}

func aggKey(service, code string) string { return service + "|" + code }

// count folds one error into the window counters and the active set.
func (d *Dispatcher) count(service, code string, err error) {
	now := d.sched.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	key := aggKey(service, code)
	d.counters[key]++

	ae, ok := d.active[key]
	if !ok {
		ae = &ActiveError{Service: service, Code: code, FirstSeen: now}
		d.active[key] = ae
	}
	ae.Count++
	ae.LastSeen = now
	ae.Retryable = autherr.Retryable(err)
	if err != nil {
		ae.LastMessage = err.Error()
	}
}

// ActiveErrors returns snapshots of live (service, code) failure streams,
// most recently seen first.
func (d *Dispatcher) ActiveErrors() []ActiveError {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ActiveError, 0, len(d.active))
	for _, ae := range d.active {
		out = append(out, *ae)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

// flush logs and resets the window counters, prunes idle active entries, and
// re-arms itself.
func (d *Dispatcher) flush() {
	now := d.sched.Now()

	d.mu.Lock()
	cfg := d.cfg
	cutoff := now.Add(-cfg.ActiveErrorTTL)
	counters := d.counters
	d.counters = make(map[string]int)
	for key, ae := range d.active {
		if ae.LastSeen.Before(cutoff) {
			delete(d.active, key)
		}
	}
	d.mu.Unlock()

	for key, n := range counters {
		d.log.Info().Str("stream", key).Int("count", n).Msg("error window")
	}
	d.sched.Schedule(flushKey, cfg.FlushInterval, d.flush)
}
