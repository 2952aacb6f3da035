// Package testutil provides test helpers for the caching engine.
package testutil

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MadeSuryawan/backend-sub000/pkg/cache"
)

// NewMiniredisManager creates a cache manager backed by an in-process
// miniredis instance. The manager is not initialized; tests that need the
// health loop call Initialize themselves. Cleanup closes the stores.
func NewMiniredisManager(t *testing.T, cfg cache.Config) (*miniredis.Miniredis, *cache.Manager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	primary := cache.NewRedisStoreFromClient(client)
	fallback := cache.NewMemoryStore(time.Minute)
	manager := cache.NewManagerWithStores(cfg, primary, fallback)

	t.Cleanup(func() {
		client.Close()
		fallback.Close()
	})

	return mr, manager
}

// CountingBackend is an http.Handler standing in for an expensive upstream.
// It counts invocations so tests can assert that cached requests never
// reach it.
type CountingBackend struct {
	mu    sync.Mutex
	count int

	// Status and Body configure the response. Zero values mean 200 and a
	// small JSON document.
	Status int
	Body   string
}

// ServeHTTP implements http.Handler.
func (b *CountingBackend) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()

	status := b.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := b.Body
	if body == "" {
		body = `{"ok":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// Count returns how many times the backend has been invoked.
func (b *CountingBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
