package ledger

import (
	"context"
	"sync"
	"time"
)

// Lock records one account lock. A zero Until means manual unlock only.
type Lock struct {
	LockedAt time.Time
	Reason   string
	Until    time.Time
}

// Ledger owns the rate windows, account locks, and malicious-IP set. It is
// private to the security monitor; no other component mutates it.
type Ledger struct {
	store Store

	mu      sync.Mutex
	locks   map[string]Lock
	threats map[string]time.Time // ip -> last observed
}

// New creates a Ledger over the given window store. A nil store selects the
// in-memory default.
func New(store Store) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Ledger{
		store:   store,
		locks:   make(map[string]Lock),
		threats: make(map[string]time.Time),
	}
}

func windowKey(identifier, action string) string {
	return identifier + "|" + action
}

// RecordAttempt appends now to the (identifier, action) window and returns
// the in-window count including the new entry.
func (l *Ledger) RecordAttempt(ctx context.Context, identifier, action string, now time.Time, window time.Duration) (int, error) {
	return l.store.Record(ctx, windowKey(identifier, action), now, window)
}

// CountAttempts returns the in-window count without recording.
func (l *Ledger) CountAttempts(ctx context.Context, identifier, action string, now time.Time, window time.Duration) (int, error) {
	return l.store.Count(ctx, windowKey(identifier, action), now, window)
}

// ResetAttempts clears the (identifier, action) window.
func (l *Ledger) ResetAttempts(ctx context.Context, identifier, action string) error {
	return l.store.Reset(ctx, windowKey(identifier, action))
}

// LockAccount records a lock for userID. A duration of zero means the lock
// holds until Unlock is called.
func (l *Ledger) LockAccount(userID string, now time.Time, reason string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock := Lock{LockedAt: now, Reason: reason}
	if duration > 0 {
		lock.Until = now.Add(duration)
	}
	l.locks[userID] = lock
}

// UnlockAccount removes the lock for userID and reports whether one existed.
func (l *Ledger) UnlockAccount(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.locks[userID]
	delete(l.locks, userID)
	return ok
}

// IsLocked reports whether userID is locked at now. An elapsed timed lock is
// removed lazily here; no sweep is required.
func (l *Ledger) IsLocked(userID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		return false
	}
	if !lock.Until.IsZero() && !now.Before(lock.Until) {
		delete(l.locks, userID)
		return false
	}
	return true
}

// LockInfo returns the lock record for userID without lazy expiry.
func (l *Ledger) LockInfo(userID string) (Lock, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	return lock, ok
}

// LockedCount returns the number of locks still active at now.
func (l *Ledger) LockedCount(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for userID, lock := range l.locks {
		if !lock.Until.IsZero() && !now.Before(lock.Until) {
			delete(l.locks, userID)
			continue
		}
		n++
	}
	return n
}

// AddThreat folds ip into the malicious-IP set.
func (l *Ledger) AddThreat(ip string, now time.Time) {
	if ip == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threats[ip] = now
}

// IsThreat reports whether ip is in the malicious-IP set.
func (l *Ledger) IsThreat(ip string) bool {
	if ip == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.threats[ip]
	return ok
}

// PruneThreats drops entries last observed at or before cutoff.
func (l *Ledger) PruneThreats(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, seen := range l.threats {
		if !seen.After(cutoff) {
			delete(l.threats, ip)
		}
	}
}

// ThreatCount returns the size of the malicious-IP set.
func (l *Ledger) ThreatCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.threats)
}
