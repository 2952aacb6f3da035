package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisStore creates a RedisStore backed by an in-process miniredis.
func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStoreFromClient(client)
}

func TestRedisStoreSetGet(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	payload, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", payload)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	ttl, found, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)

	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreTTLMissing(t *testing.T) {
	_, s := newTestRedisStore(t)

	_, found, err := s.TTL(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreDeleteExists(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, s.Set(ctx, "b", "2", time.Minute))

	count, err := s.Exists(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	removed, err := s.Delete(ctx, "a", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err = s.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreExpire(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	ok, err := s.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Hour))
	ok, err = s.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, found, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, time.Minute, ttl)
}

func TestRedisStoreClear(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cache:items:1", "a", time.Minute))
	require.NoError(t, s.Set(ctx, "cache:items:2", "b", time.Minute))
	require.NoError(t, s.Set(ctx, "cache:users:1", "c", time.Minute))

	count, err := s.Clear(ctx, "cache:items:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := s.Exists(ctx, "cache:items:1", "cache:items:2", "cache:users:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

func TestRedisStorePing(t *testing.T) {
	mr, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	mr.Close()
	assert.Error(t, s.Ping(ctx))
}

func TestRedisStoreGetAfterOutage(t *testing.T) {
	mr, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err, "connection failure must surface as a store error, not a miss")
}
