package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStoreUnavailable indicates the window backend is unreachable.
var ErrStoreUnavailable = errors.New("rate window store unavailable")

// Store persists sliding attempt windows.
type Store interface {
	// Record appends ts under key and returns the number of entries within
	// (ts-window, ts] after the append.
	Record(ctx context.Context, key string, ts time.Time, window time.Duration) (int, error)

	// Count returns the number of entries within (now-window, now] without
	// recording anything. Entries older than the window are pruned first.
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)

	// Reset drops all entries for key.
	Reset(ctx context.Context, key string) error
}

// MemoryStore keeps windows as plain timestamp slices. It is the default
// backend for a device-local core.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string][]time.Time)}
}

func (s *MemoryStore) Record(_ context.Context, key string, ts time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := prune(s.windows[key], ts.Add(-window))
	entries = append(entries, ts)
	s.windows[key] = entries
	return len(entries), nil
}

func (s *MemoryStore) Count(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := prune(s.windows[key], now.Add(-window))
	if len(entries) == 0 {
		delete(s.windows, key)
	} else {
		s.windows[key] = entries
	}
	return len(entries), nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// prune drops entries at or before cutoff. Input must be in append order.
func prune(entries []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(entries) && !entries[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return entries
	}
	return append([]time.Time(nil), entries[idx:]...)
}
