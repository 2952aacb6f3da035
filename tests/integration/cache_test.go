package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MadeSuryawan/backend-sub000/pkg/cache"
)

// setupRedis starts a Redis container and returns its address.
func setupRedis(t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return container, host + ":" + port.Port()
}

func newManager(t *testing.T, addr string, mutate func(*cache.Config)) *cache.Manager {
	t.Helper()

	cfg := cache.DefaultConfig()
	cfg.Addr = addr
	cfg.KeyPrefix = "itest:"
	if mutate != nil {
		mutate(&cfg)
	}

	manager, err := cache.NewManager(cfg)
	require.NoError(t, err)
	require.NoError(t, manager.Initialize(context.Background()))
	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	return manager
}

type order struct {
	ID    int     `json:"id"`
	Price float64 `json:"price"`
}

// TestFullCacheFlow exercises the whole engine against real Redis: set, get,
// TTL, GetOrSet, namespace clear, statistics.
func TestFullCacheFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, addr := setupRedis(t)
	manager := newManager(t, addr, nil)
	ctx := context.Background()

	// Set and get.
	ok, err := manager.Set(ctx, "order_1", order{ID: 1, Price: 9.99},
		cache.InNamespace("orders"), cache.WithTTL(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := cache.GetAs[order](ctx, manager, "order_1", cache.InNamespace("orders"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, order{ID: 1, Price: 9.99}, got)

	// TTL was applied.
	ttl, found, err := manager.TTL(ctx, "order_1", cache.InNamespace("orders"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Greater(t, ttl, 50*time.Second)

	// GetOrSet invokes the loader once.
	calls := 0
	loader := func(context.Context) (order, error) {
		calls++
		return order{ID: 2, Price: 19.99}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := cache.GetOrSetAs(ctx, manager, "order_2", loader, cache.InNamespace("orders"))
		require.NoError(t, err)
		assert.Equal(t, order{ID: 2, Price: 19.99}, got)
	}
	assert.Equal(t, 1, calls)

	// Clear the namespace.
	removed, err := manager.Clear(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, found, err = manager.Get(ctx, "order_1", cache.InNamespace("orders"))
	require.NoError(t, err)
	assert.False(t, found)

	snap := manager.Statistics()
	assert.Positive(t, snap.Hits)
	assert.Positive(t, snap.Misses)
}

// TestCompressionAgainstRedis verifies large values survive the compression
// round trip through a real server.
func TestCompressionAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, addr := setupRedis(t)
	manager := newManager(t, addr, func(cfg *cache.Config) {
		cfg.CompressionThreshold = 128
	})
	ctx := context.Background()

	large := make([]order, 200)
	for i := range large {
		large[i] = order{ID: i, Price: float64(i) * 1.5}
	}

	ok, err := manager.Set(ctx, "orders_page_1", large)
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := cache.GetAs[[]order](ctx, manager, "orders_page_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, large, got)
}

// TestFailoverOnOutage stops the container mid-run and verifies the engine
// degrades to the fallback store without surfacing errors.
func TestFailoverOnOutage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container, addr := setupRedis(t)
	manager := newManager(t, addr, func(cfg *cache.Config) {
		cfg.FailureThreshold = 2
		cfg.HealthCheckInterval = 100 * time.Millisecond
		cfg.ReadTimeout = time.Second
		cfg.WriteTimeout = time.Second
		cfg.DialTimeout = time.Second
	})
	ctx := context.Background()

	ok, err := manager.Set(ctx, "k", "before outage")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, manager.Ping(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, container.Stop(stopCtx, nil))

	// Ping reflects the outage immediately.
	assert.False(t, manager.Ping(ctx))

	// Operations degrade to misses and false writes, never errors, until
	// the threshold trips.
	require.Eventually(t, func() bool {
		_, _, err := manager.Get(ctx, "k")
		require.NoError(t, err)
		return manager.Degraded()
	}, 15*time.Second, 200*time.Millisecond)

	// Degraded operations are served by the in-process fallback.
	ok, err = manager.Set(ctx, "k", "during outage")
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := cache.GetAs[string](ctx, manager, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "during outage", got)
}
