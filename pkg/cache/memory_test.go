package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(time.Minute)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := newTestMemoryStore(t)
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

func TestMemoryStoreExpiry(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry should read as missing")
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 5*time.Millisecond))

	assert.Eventually(t, func() bool {
		count, err := s.Exists(ctx, "k")
		return err == nil && count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, s.Set(ctx, "b", "2", time.Minute))

	count, err := s.Delete(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	exists, err := s.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestMemoryStoreExpireAndTTL(t *testing.T) {
	s := newTestMemoryStore(t)
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
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	_, found, err = s.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreClear(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cache:items:1", "a", time.Minute))
	require.NoError(t, s.Set(ctx, "cache:items:2", "b", time.Minute))
	require.NoError(t, s.Set(ctx, "cache:users:1", "c", time.Minute))

	count, err := s.Clear(ctx, "cache:items:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := s.Exists(ctx, "cache:users:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	// Empty namespace pattern clears everything under the prefix.
	count, err = s.Clear(ctx, "cache:*")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStorePingAndInfo(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", info["store"])
	assert.Equal(t, "1", info["entries"])
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
