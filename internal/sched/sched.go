package sched

import (
	"context"
	"sync"
	"time"
)

// Clock supplies current time and interruptible sleeps so callers never touch
// the time package directly.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Scheduler registers keyed deferred callbacks on top of a Clock.
type Scheduler interface {
	Clock

	// Schedule arranges fn to run once after d. A pending callback under the
	// same key is cancelled and replaced.
	Schedule(key string, d time.Duration, fn func())

	// Cancel drops the pending callback for key, if any.
	Cancel(key string)

	// Stop cancels all pending callbacks. The scheduler is unusable afterwards.
	Stop()
}

// Timers is the production Scheduler backed by time.AfterFunc.
type Timers struct {
	mu      sync.Mutex
	stopped bool
	timers  map[string]*time.Timer
}

// NewTimers creates an empty real-time scheduler.
func NewTimers() *Timers {
	return &Timers{timers: make(map[string]*time.Timer)}
}

func (t *Timers) Now() time.Time {
	return time.Now()
}

func (t *Timers) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Timers) Schedule(key string, d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if prev, ok := t.timers[key]; ok {
		prev.Stop()
	}
	t.timers[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, key)
		stopped := t.stopped
		t.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
