// Package metrics documents the Prometheus metrics exported by the caching
// engine. The metrics themselves are defined next to the code that drives
// them (pkg/cache) via promauto; this package exists as the central
// reference and registry handle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer the engine's metrics attach to. promauto in
// pkg/cache registers against the default registerer.
var Registry = prometheus.DefaultRegisterer

// Metric catalogue
//
// Cache operations (pkg/cache):
//   - cache_hits_total{layer} (Counter): hits by serving layer ("redis", "memory")
//   - cache_misses_total (Counter): misses
//   - cache_errors_total{operation} (Counter): contained environmental
//     failures by operation ("get", "set", "delete", "clear", "expire",
//     "ttl", "exists", "ping", "info")
//
// Store health (pkg/cache):
//   - cache_store_healthy (Gauge): 1 while Redis is the active store
//   - cache_failovers_total (Counter): transitions to the fallback store
//   - cache_recoveries_total (Counter): transitions back to Redis
//
// Example queries:
//
//	# Hit rate over 5 minutes
//	sum(rate(cache_hits_total[5m])) /
//	(sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))
//
//	# Fallback-serving time
//	cache_store_healthy == 0
//
//	# Error rate by operation
//	rate(cache_errors_total[5m])
