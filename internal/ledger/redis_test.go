package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestRedisStore_RecordCountsInWindow(t *testing.T) {
	s, _ := newRedisStore(t)
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

	n, err := s.Count(ctx, "k", base.Add(30*time.Second), window)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestRedisStore_OldEntriesFallOut(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0)
	window := time.Minute

	if _, err := s.Record(ctx, "k", base, window); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Recording past the window prunes the stale entry first.
	n, err := s.Record(ctx, "k", base.Add(2*time.Minute), window)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("count after sliding = %d, want 1", n)
	}
}

func TestRedisStore_SameInstantEntriesStayDistinct(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	for i := 1; i <= 3; i++ {
		n, err := s.Record(ctx, "k", now, time.Minute)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if n != i {
			t.Fatalf("count after same-instant record %d = %d", i, n)
		}
	}
}

func TestRedisStore_ResetClearsKey(t *testing.T) {
	s, _ := newRedisStore(t)
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

func TestRedisStore_UnavailableBackendReturnsTypedError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client, "test")
	mr.Close()

	_, err := s.Record(context.Background(), "k", time.Unix(1000, 0), time.Minute)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
