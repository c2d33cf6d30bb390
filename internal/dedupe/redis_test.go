package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

type redisStub struct {
	existing map[string]bool
	locked   map[string]bool
	sets     []string
	dels     []string
	err      error
}

func newRedisStub() *redisStub {
	return &redisStub{
		existing: make(map[string]bool),
		locked:   make(map[string]bool),
	}
}

func (s *redisStub) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	if s.err != nil {
		return goredis.NewIntResult(0, s.err)
	}
	var n int64
	for _, key := range keys {
		if s.existing[key] {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (s *redisStub) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd {
	if s.err != nil {
		return goredis.NewBoolResult(false, s.err)
	}
	if s.locked[key] {
		return goredis.NewBoolResult(false, nil)
	}
	s.locked[key] = true
	return goredis.NewBoolResult(true, nil)
}

func (s *redisStub) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if s.err != nil {
		return goredis.NewStatusResult("", s.err)
	}
	s.existing[key] = true
	s.sets = append(s.sets, key)
	return goredis.NewStatusResult("OK", nil)
}

func (s *redisStub) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	if s.err != nil {
		return goredis.NewIntResult(0, s.err)
	}
	for _, key := range keys {
		delete(s.locked, key)
		s.dels = append(s.dels, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func newRedisTestStore(stub *redisStub) *RedisStore {
	return &RedisStore{
		client: stub,
		window: time.Minute,
		logger: logging.NewLogger(),
	}
}

func TestRedisStoreAdmissionRoundTrip(t *testing.T) {
	stub := newRedisStub()
	store := newRedisTestStore(stub)
	ctx := context.Background()

	if store.SeenRecently(ctx, "0xA", "evt-1") {
		t.Fatal("fresh event should not be seen")
	}
	store.MarkProcessed(ctx, "0xA", "evt-1")
	if !store.SeenRecently(ctx, "0xA", "") {
		t.Fatal("cast hash should be recorded")
	}
	if !store.SeenRecently(ctx, "", "evt-1") {
		t.Fatal("event id should be recorded")
	}
}

func TestRedisStoreLockSemantics(t *testing.T) {
	stub := newRedisStub()
	store := newRedisTestStore(stub)
	ctx := context.Background()

	if !store.TryAcquire(ctx, "0xA") {
		t.Fatal("first acquire should succeed")
	}
	if store.TryAcquire(ctx, "0xA") {
		t.Fatal("second acquire should fail while lock held")
	}
	store.Release(ctx, "0xA")
	if !store.TryAcquire(ctx, "0xA") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestRedisStoreMarkProcessedReleasesLock(t *testing.T) {
	stub := newRedisStub()
	store := newRedisTestStore(stub)
	ctx := context.Background()

	store.TryAcquire(ctx, "0xA")
	store.MarkProcessed(ctx, "0xA", "evt-1")
	if stub.locked["siren:lock:0xA"] {
		t.Fatal("MarkProcessed should release the lock key")
	}
}

func TestRedisStoreFailsOpen(t *testing.T) {
	stub := newRedisStub()
	stub.err = errors.New("connection refused")
	store := newRedisTestStore(stub)
	ctx := context.Background()

	if store.SeenRecently(ctx, "0xA", "evt-1") {
		t.Fatal("admission check should fail open on redis errors")
	}
	if !store.TryAcquire(ctx, "0xA") {
		t.Fatal("lock acquire should fail open on redis errors")
	}
}
