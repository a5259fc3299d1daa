package ledger

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_WindowSlidesAndPrunes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Unix(1000, 0)
	window := time.Minute

	for i := 0; i < 3; i++ {
		n, err := s.Record(ctx, "k", base.Add(time.Duration(i)*time.Second), window)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if n != i+1 {
			t.Fatalf("count after record %d = %d", i+1, n)
		}
	}

	// All three entries still inside the window.
	n, err := s.Count(ctx, "k", base.Add(30*time.Second), window)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("count inside window = %d, want 3", n)
	}

	// An entry exactly at the cutoff falls out of the window.
	n, err = s.Count(ctx, "k", base.Add(window), window)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("count at cutoff = %d, want 2", n)
	}

	// Far in the future everything is gone.
	n, err = s.Count(ctx, "k", base.Add(time.Hour), window)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("count after window = %d, want 0", n)
	}
}

func TestMemoryStore_ResetClearsKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Unix(1000, 0)

	if _, err := s.Record(ctx, "k", now, time.Minute); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	n, err := s.Count(ctx, "k", now, time.Minute)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("count after reset = %d, want 0", n)
	}
}

func TestLedger_KeysIsolatePerIdentifierAndAction(t *testing.T) {
	l := New(nil)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	if _, err := l.RecordAttempt(ctx, "1.2.3.4", "login", now, time.Minute); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if _, err := l.RecordAttempt(ctx, "1.2.3.4", "api_call", now, time.Minute); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	n, err := l.CountAttempts(ctx, "1.2.3.4", "login", now, time.Minute)
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("login window count = %d, want 1", n)
	}

	n, err = l.CountAttempts(ctx, "5.6.7.8", "login", now, time.Minute)
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("other identifier count = %d, want 0", n)
	}
}

func TestLedger_TimedLockExpiresLazily(t *testing.T) {
	l := New(nil)
	now := time.Unix(1000, 0)

	l.LockAccount("u1", now, "multiple_failed_attempts", 30*time.Minute)

	if !l.IsLocked("u1", now.Add(29*time.Minute)) {
		t.Fatal("lock should hold inside its duration")
	}
	if l.IsLocked("u1", now.Add(30*time.Minute)) {
		t.Fatal("lock should have expired at its deadline")
	}

	// Lazy expiry removed the record entirely.
	if _, ok := l.LockInfo("u1"); ok {
		t.Fatal("expired lock record was not removed")
	}
}

func TestLedger_ZeroDurationLockHoldsUntilUnlock(t *testing.T) {
	l := New(nil)
	now := time.Unix(1000, 0)

	l.LockAccount("u1", now, "manual", 0)

	if !l.IsLocked("u1", now.Add(365*24*time.Hour)) {
		t.Fatal("zero-duration lock should never auto-expire")
	}
	if !l.UnlockAccount("u1") {
		t.Fatal("UnlockAccount should report an existing lock")
	}
	if l.IsLocked("u1", now) {
		t.Fatal("account still locked after unlock")
	}
	if l.UnlockAccount("u1") {
		t.Fatal("second unlock should report no lock")
	}
}

func TestLedger_LockedCountSkipsExpired(t *testing.T) {
	l := New(nil)
	now := time.Unix(1000, 0)

	l.LockAccount("u1", now, "r", 10*time.Minute)
	l.LockAccount("u2", now, "r", time.Hour)
	l.LockAccount("u3", now, "r", 0)

	if got := l.LockedCount(now.Add(30 * time.Minute)); got != 2 {
		t.Fatalf("LockedCount = %d, want 2", got)
	}
}

func TestLedger_ThreatSetAddAndPrune(t *testing.T) {
	l := New(nil)
	now := time.Unix(1000, 0)

	l.AddThreat("1.2.3.4", now)
	l.AddThreat("5.6.7.8", now.Add(time.Hour))
	l.AddThreat("", now) // ignored

	if !l.IsThreat("1.2.3.4") || !l.IsThreat("5.6.7.8") {
		t.Fatal("expected both IPs in the threat set")
	}
	if l.IsThreat("") {
		t.Fatal("empty IP must never match")
	}
	if got := l.ThreatCount(); got != 2 {
		t.Fatalf("ThreatCount = %d, want 2", got)
	}

	l.PruneThreats(now)
	if l.IsThreat("1.2.3.4") {
		t.Fatal("entry at cutoff should be pruned")
	}
	if !l.IsThreat("5.6.7.8") {
		t.Fatal("fresh entry should survive the prune")
	}
}
