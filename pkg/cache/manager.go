package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager orchestrates the caching engine: key construction, TTL clamping,
// compression decisions, store routing, error containment, and statistics.
//
// Construct one Manager at process startup, call Initialize before first
// use, inject it wherever caching is needed, and call Shutdown at teardown.
// It is not a global; ownership stays with the composition root.
//
// All environmental failures (store, serialization, compression) are
// contained: reads degrade to misses, writes report false, the error is
// logged and counted. Only usage errors and GetOrSet loader errors reach
// the caller.
type Manager struct {
	cfg      Config
	primary  Store
	fallback Store
	router   *Router
	stats    *Stats
	logger   zerolog.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewManager creates a Manager with a Redis primary store and an in-process
// fallback, built from cfg. Call Initialize before use.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("store address is required")
	}
	return newManager(cfg, NewRedisStore(cfg), NewMemoryStore(cfg.SweepInterval)), nil
}

// NewManagerWithStores creates a Manager over explicit store
// implementations. Intended for tests and for callers that manage their own
// client lifecycle.
func NewManagerWithStores(cfg Config, primary, fallback Store) *Manager {
	return newManager(cfg, primary, fallback)
}

func newManager(cfg Config, primary, fallback Store) *Manager {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = DefaultConfig().MaxTTL
	}
	logger := log.With().Str("component", "cache-manager").Logger()
	return &Manager{
		cfg:      cfg,
		primary:  primary,
		fallback: fallback,
		router:   NewRouter(primary, fallback, cfg.HealthCheckInterval, cfg.FailureThreshold, logger),
		stats:    NewStats(cfg.StatisticsEnabled),
		logger:   logger,
	}
}

// Initialize verifies store connectivity and starts the health-check loop.
// An unreachable store is not fatal; the engine starts and fails over once
// the failure threshold is reached.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := m.primary.Ping(pingCtx); err != nil {
		m.logger.Warn().
			Err(err).
			Str("addr", m.cfg.Addr).
			Msg("Cache store unreachable at startup, will serve from fallback once degraded")
		m.router.MarkFailure()
	}
	m.router.Start()
	m.logger.Info().
		Str("addr", m.cfg.Addr).
		Dur("default_ttl", m.cfg.DefaultTTL).
		Bool("compression", m.cfg.CompressionEnabled).
		Msg("Cache manager initialized")
	return nil
}

// Shutdown stops accepting operations, drains in-flight ones (bounded by
// ctx), stops the health-check loop, and closes both stores.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.router.Stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	var drainErr error
	select {
	case <-done:
	case <-ctx.Done():
		drainErr = fmt.Errorf("drain in-flight operations: %w", ctx.Err())
	}

	err := errors.Join(drainErr, m.primary.Close(), m.fallback.Close())
	m.logger.Info().Msg("Cache manager shut down")
	return err
}

// begin registers an in-flight operation; the caller must release it with
// m.wg.Done().
func (m *Manager) begin() error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.wg.Add(1)
	return nil
}

// containFailure records an environmental failure without letting it escape:
// statistics and metrics are incremented, store-class failures additionally
// count toward the router's failover threshold.
func (m *Manager) containFailure(class ErrorClass, op string, err error) {
	cerr := newCacheError(class, op, err)
	m.stats.RecordError()
	CacheErrors.WithLabelValues(op).Inc()
	if class == ErrorClassStore {
		m.router.MarkFailure()
	}
	m.logger.Warn().Err(cerr).Str("operation", op).Msg("Cache operation failed")
}

// clampTTL resolves the effective TTL for a write: the requested TTL or
// DefaultTTL, clamped to [1s, MaxTTL].
func (m *Manager) clampTTL(o itemOptions) time.Duration {
	ttl := m.cfg.DefaultTTL
	if o.ttlSet {
		ttl = o.ttl
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if ttl > m.cfg.MaxTTL {
		ttl = m.cfg.MaxTTL
	}
	return ttl
}

// shouldCompress applies the per-write compression decision: enabled
// (config or per-call override) and payload at or above the threshold.
func (m *Manager) shouldCompress(serializedLen int, override *bool) bool {
	enabled := m.cfg.CompressionEnabled
	if override != nil {
		enabled = *override
	}
	return enabled && serializedLen >= m.cfg.CompressionThreshold
}

// getInto fetches and decodes a value into dst. It returns found=false for
// misses and for any contained failure; the error return carries usage
// errors only.
func (m *Manager) getInto(ctx context.Context, key string, dst any, o itemOptions) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.wg.Done()

	fullKey := BuildKey(m.cfg.KeyPrefix, o.namespace, key)
	layer := m.router.ActiveLayer()
	payload, found, err := m.router.Active().Get(ctx, fullKey)
	if err != nil {
		m.containFailure(ErrorClassStore, "get", err)
		return false, nil
	}
	if !found {
		m.stats.RecordMiss()
		CacheMisses.Inc()
		return false, nil
	}

	// The marker, not the configuration, decides whether to decompress.
	plain, err := Decompress(payload)
	if err != nil {
		m.containFailure(ErrorClassCompression, "get", err)
		return false, nil
	}
	if err := Deserialize(plain, dst); err != nil {
		m.containFailure(ErrorClassSerialization, "get", err)
		return false, nil
	}

	m.stats.RecordHit(len(payload))
	CacheHits.WithLabelValues(layer).Inc()
	return true, nil
}

// Get retrieves a value by key. The bool reports whether a value was found;
// environmental failures read as absent. The error return carries usage
// errors only (empty key, closed manager).
func (m *Manager) Get(ctx context.Context, key string, opts ...ItemOption) (any, bool, error) {
	var v any
	found, err := m.getInto(ctx, key, &v, applyItemOptions(opts))
	if !found || err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetAs retrieves a value by key decoded into T.
func GetAs[T any](ctx context.Context, m *Manager, key string, opts ...ItemOption) (T, bool, error) {
	var v T
	found, err := m.getInto(ctx, key, &v, applyItemOptions(opts))
	if !found || err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Set stores a value. The bool reports whether the write succeeded;
// environmental failures report false rather than an error.
func (m *Manager) Set(ctx context.Context, key string, value any, opts ...ItemOption) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.wg.Done()
	o := applyItemOptions(opts)

	payload, err := Serialize(value)
	if err != nil {
		m.containFailure(ErrorClassSerialization, "set", err)
		return false, nil
	}
	if m.shouldCompress(len(payload), o.compress) {
		compressed, err := Compress(payload)
		if err != nil {
			// Store the uncompressed payload instead.
			m.containFailure(ErrorClassCompression, "set", err)
		} else {
			payload = compressed
		}
	}

	fullKey := BuildKey(m.cfg.KeyPrefix, o.namespace, key)
	if err := m.router.Active().Set(ctx, fullKey, payload, m.clampTTL(o)); err != nil {
		m.containFailure(ErrorClassStore, "set", err)
		return false, nil
	}
	m.stats.RecordSet(len(payload))
	return true, nil
}

// Delete removes the given keys, returning how many existed.
func (m *Manager) Delete(ctx context.Context, keys []string, opts ...ItemOption) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	for _, key := range keys {
		if key == "" {
			return 0, ErrEmptyKey
		}
	}
	if err := m.begin(); err != nil {
		return 0, err
	}
	defer m.wg.Done()
	o := applyItemOptions(opts)

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = BuildKey(m.cfg.KeyPrefix, o.namespace, key)
	}
	count, err := m.router.Active().Delete(ctx, fullKeys...)
	if err != nil {
		m.containFailure(ErrorClassStore, "delete", err)
		return 0, nil
	}
	m.stats.RecordDelete(count)
	return count, nil
}

// Exists returns how many of the given keys exist.
func (m *Manager) Exists(ctx context.Context, keys []string, opts ...ItemOption) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	if err := m.begin(); err != nil {
		return 0, err
	}
	defer m.wg.Done()
	o := applyItemOptions(opts)

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = BuildKey(m.cfg.KeyPrefix, o.namespace, key)
	}
	count, err := m.router.Active().Exists(ctx, fullKeys...)
	if err != nil {
		m.containFailure(ErrorClassStore, "exists", err)
		return 0, nil
	}
	return count, nil
}

// Expire sets a new TTL on an existing entry.
func (m *Manager) Expire(ctx context.Context, key string, ttl time.Duration, opts ...ItemOption) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.wg.Done()
	o := applyItemOptions(opts)

	ok, err := m.router.Active().Expire(ctx, BuildKey(m.cfg.KeyPrefix, o.namespace, key), ttl)
	if err != nil {
		m.containFailure(ErrorClassStore, "expire", err)
		return false, nil
	}
	return ok, nil
}

// TTL returns the remaining TTL for an entry. The bool reports whether the
// entry exists.
func (m *Manager) TTL(ctx context.Context, key string, opts ...ItemOption) (time.Duration, bool, error) {
	if key == "" {
		return 0, false, ErrEmptyKey
	}
	if err := m.begin(); err != nil {
		return 0, false, err
	}
	defer m.wg.Done()
	o := applyItemOptions(opts)

	ttl, found, err := m.router.Active().TTL(ctx, BuildKey(m.cfg.KeyPrefix, o.namespace, key))
	if err != nil {
		m.containFailure(ErrorClassStore, "ttl", err)
		return 0, false, nil
	}
	return ttl, found, nil
}

// Clear removes every entry in the given namespace, or everything under the
// configured key prefix when namespace is empty. Returns the number of
// entries removed.
func (m *Manager) Clear(ctx context.Context, namespace string) (int64, error) {
	if err := m.begin(); err != nil {
		return 0, err
	}
	defer m.wg.Done()

	count, err := m.router.Active().Clear(ctx, NamespacePattern(m.cfg.KeyPrefix, namespace))
	if err != nil {
		m.containFailure(ErrorClassStore, "clear", err)
		return 0, nil
	}
	m.stats.RecordDelete(count)
	m.logger.Debug().Str("namespace", namespace).Int64("removed", count).Msg("Cleared cache namespace")
	return count, nil
}

// GetOrSet is the cache-aside primitive. On a hit (and without
// WithForceRefresh) it returns the cached value without invoking the
// loader. On a miss it invokes the loader and, only on success, stores the
// result before returning it. A loader error propagates unchanged and is
// never cached.
//
// Concurrent misses for the same key may each invoke the loader; there is
// no per-key mutual exclusion.
func (m *Manager) GetOrSet(ctx context.Context, key string, loader func(context.Context) (any, error), opts ...ItemOption) (any, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	return GetOrSetAs[any](ctx, m, key, loader, opts...)
}

// GetOrSetAs is the typed variant of GetOrSet.
func GetOrSetAs[T any](ctx context.Context, m *Manager, key string, loader func(context.Context) (T, error), opts ...ItemOption) (T, error) {
	var zero T
	if key == "" {
		return zero, ErrEmptyKey
	}
	if loader == nil {
		return zero, ErrNilLoader
	}
	o := applyItemOptions(opts)

	if !o.forceRefresh {
		var v T
		found, err := m.getInto(ctx, key, &v, o)
		if err != nil {
			return zero, err
		}
		if found {
			return v, nil
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}
	// The caller has its value; a failed write only costs the next caller
	// a recomputation.
	_, _ = m.Set(ctx, key, value, opts...)
	return value, nil
}

// Ping reports whether the active store is reachable. It reflects outages
// immediately: while the Redis store is still active but unreachable, Ping
// returns false before the next health-check cycle runs.
func (m *Manager) Ping(ctx context.Context) bool {
	if err := m.begin(); err != nil {
		return false
	}
	defer m.wg.Done()

	if err := m.router.Active().Ping(ctx); err != nil {
		m.containFailure(ErrorClassStore, "ping", err)
		return false
	}
	return true
}

// Info returns diagnostics from the active store.
func (m *Manager) Info(ctx context.Context) (map[string]string, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.wg.Done()

	info, err := m.router.Active().Info(ctx)
	if err != nil {
		m.containFailure(ErrorClassStore, "info", err)
		return map[string]string{}, nil
	}
	return info, nil
}

// Degraded reports whether operations are currently served by the fallback
// store.
func (m *Manager) Degraded() bool {
	return m.router.Degraded()
}

// Statistics returns an immutable snapshot of the counters.
func (m *Manager) Statistics() StatsSnapshot {
	return m.stats.Snapshot()
}

// ResetStatistics zeroes the counters.
func (m *Manager) ResetStatistics() {
	m.stats.Reset()
}
