package dedupe

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// lockTTL bounds how long a processing lock can outlive a crashed instance.
// Generation plus publish stays under a minute; anything older is leaked.
const lockTTL = 2 * time.Minute

// redisCommands is the subset of go-redis used by RedisStore, narrowed so
// tests can substitute a stub.
type redisCommands interface {
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// RedisStore implements Store against a shared Redis, giving horizontally
// scaled instances one admission cache and lock table. Redis failures fail
// open: an unreachable store must not take webhook ingestion down with it,
// at the cost of possible duplicate handling during the outage.
type RedisStore struct {
	client redisCommands
	closer interface{ Close() error }
	window time.Duration
	logger logging.Logger
}

// NewRedisStore wraps an established Redis client in the Store contract.
func NewRedisStore(client *goredis.Client, window time.Duration, logger logging.Logger) *RedisStore {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return &RedisStore{
		client: client,
		closer: client,
		window: window,
		logger: logger,
	}
}

func (s *RedisStore) SeenRecently(ctx context.Context, castHash, eventID string) bool {
	keys := make([]string, 0, 2)
	if eventID != "" {
		keys = append(keys, "siren:event:"+eventID)
	}
	if castHash != "" {
		keys = append(keys, "siren:cast:"+castHash)
	}
	if len(keys) == 0 {
		return false
	}

	n, err := s.client.Exists(ctx, keys...).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Redis admission check failed; admitting event")
		return false
	}
	return n > 0
}

func (s *RedisStore) TryAcquire(ctx context.Context, castHash string) bool {
	if castHash == "" {
		return true
	}

	ok, err := s.client.SetNX(ctx, "siren:lock:"+castHash, 1, lockTTL).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Redis lock acquire failed; proceeding unlocked")
		return true
	}
	return ok
}

func (s *RedisStore) MarkProcessed(ctx context.Context, castHash, eventID string) {
	if eventID != "" {
		if err := s.client.Set(ctx, "siren:event:"+eventID, 1, s.window).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to record event admission in Redis")
		}
	}
	if castHash != "" {
		if err := s.client.Set(ctx, "siren:cast:"+castHash, 1, s.window).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to record cast admission in Redis")
		}
		s.Release(ctx, castHash)
	}
}

func (s *RedisStore) Release(ctx context.Context, castHash string) {
	if castHash == "" {
		return
	}
	if err := s.client.Del(ctx, "siren:lock:"+castHash).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to release Redis lock")
	}
}

func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
