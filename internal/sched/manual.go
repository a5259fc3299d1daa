package sched

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-time Scheduler for tests. Time only moves through
// Advance and Sleep; callbacks fire inline from Advance in due order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending map[string]*manualEntry
	slept   []time.Duration
}

type manualEntry struct {
	due time.Time
	seq uint64
	fn  func()
}

// NewManual creates a virtual-time scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, pending: make(map[string]*manualEntry)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep records the requested delay and advances virtual time without firing
// pending callbacks; tests drive those explicitly through Advance.
func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now = m.now.Add(d)
	}
	m.slept = append(m.slept, d)
	return nil
}

func (m *Manual) Schedule(key string, d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending[key] = &manualEntry{due: m.now.Add(d), seq: m.seq, fn: fn}
}

func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[string]*manualEntry)
}

// Advance moves virtual time forward by d, firing every callback whose due
// time falls inside the window, in due order (registration order on ties).
// Callbacks may re-schedule; re-scheduled work due inside the window fires too.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		key, entry := m.next(target)
		if entry == nil {
			break
		}
		if entry.due.After(m.now) {
			m.now = entry.due
		}
		delete(m.pending, key)
		m.mu.Unlock()
		entry.fn()
		m.mu.Lock()
	}
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
}

// next returns the earliest pending entry due at or before target.
// Caller must hold m.mu.
func (m *Manual) next(target time.Time) (string, *manualEntry) {
	type cand struct {
		key   string
		entry *manualEntry
	}
	var due []cand
	for key, entry := range m.pending {
		if !entry.due.After(target) {
			due = append(due, cand{key, entry})
		}
	}
	if len(due) == 0 {
		return "", nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].entry.due.Equal(due[j].entry.due) {
			return due[i].entry.seq < due[j].entry.seq
		}
		return due[i].entry.due.Before(due[j].entry.due)
	})
	return due[0].key, due[0].entry
}

// Pending reports whether key has a scheduled callback.
func (m *Manual) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// Slept returns the delays passed to Sleep since the last ResetSlept.
func (m *Manual) Slept() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.slept))
	copy(out, m.slept)
	return out
}

// ResetSlept clears the recorded sleep log.
func (m *Manual) ResetSlept() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slept = nil
}
