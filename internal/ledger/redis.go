package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sliding windows in Redis sorted sets scored by timestamp.
// Key layout: "<prefix>:rw:<key>".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	seq    atomic.Uint64
}

// NewRedisStore creates a window store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ac"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":rw:" + key
}

func (s *RedisStore) Record(ctx context.Context, key string, ts time.Time, window time.Duration) (int, error) {
	k := s.key(key)
	cutoff := strconv.FormatInt(ts.Add(-window).UnixNano(), 10)

	// Member carries a sequence suffix so same-nanosecond entries stay distinct.
	member := strconv.FormatInt(ts.UnixNano(), 10) + "-" + strconv.FormatUint(s.seq.Add(1), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(ts.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(card.Val()), nil
}

func (s *RedisStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	k := s.key(key)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(card.Val()), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
