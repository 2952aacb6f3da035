// Package cache implements a namespace-scoped caching engine with a Redis
// backend, an in-process fallback store, transparent payload compression,
// and hit/miss statistics.
//
// The engine degrades gracefully: when Redis becomes unreachable, a
// health-check-driven router switches all operations to a local in-memory
// store until Redis recovers. A cache outage costs performance, never
// correctness: environmental failures are contained inside the Manager
// and reported through statistics and Prometheus metrics.
//
// # Basic Usage
//
//	cfg := cache.DefaultConfig()
//	cfg.Addr = "localhost:6379"
//
//	manager, err := cache.NewManager(cfg)
//	if err != nil {
//		return err
//	}
//	if err := manager.Initialize(ctx); err != nil {
//		return err
//	}
//	defer manager.Shutdown(context.Background())
//
//	// Store a value for 10 minutes under the "items" namespace.
//	manager.Set(ctx, "item_1", item, cache.WithTTL(10*time.Minute), cache.InNamespace("items"))
//
//	// Typed read.
//	item, found, err := cache.GetAs[Item](ctx, manager, "item_1", cache.InNamespace("items"))
//
// # Cache-Aside
//
//	value, err := manager.GetOrSet(ctx, "report:today", func(ctx context.Context) (any, error) {
//		return buildExpensiveReport(ctx)
//	}, cache.WithTTL(time.Hour))
//
// The loader runs only on a miss; a loader error propagates to the caller
// unchanged and is never cached. Concurrent misses for the same key may each
// invoke the loader; there is no single-flight de-duplication.
//
// # Key Shape
//
// Every key stored by the engine has the form
//
//	<keyPrefix><namespace>:<callerKey>   (namespaced)
//	<keyPrefix><callerKey>               (no namespace)
//
// built exclusively by BuildKey. Namespaces partition the keyspace, so the
// same caller key in two namespaces never collides.
//
// # Wire Format
//
// Values are JSON-serialized. Payloads at or above the configured
// compression threshold are gzip-compressed, base64-encoded, and prefixed
// with a fixed marker. The marker, not the configuration, decides whether
// a payload is decompressed on read, so entries written under a different
// compression setting stay readable.
//
// # Metrics
//
// The package exports Prometheus metrics via promauto:
//
//   - cache_hits_total{layer}    - hits by serving layer (redis, memory)
//   - cache_misses_total         - misses
//   - cache_errors_total{operation} - contained environmental failures
//   - cache_store_healthy        - 1 while the Redis store is the active store
//   - cache_failovers_total      - transitions to the fallback store
//   - cache_recoveries_total     - transitions back to the Redis store
package cache
