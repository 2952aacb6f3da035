package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by serving layer (redis, memory).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits by serving layer",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheErrors tracks contained environmental failures by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear", ...
	)

	// StoreHealthy is 1 while the Redis store is active, 0 while the
	// engine is serving from the in-process fallback.
	StoreHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_store_healthy",
			Help: "Whether the external cache store is the active store (1) or the fallback is (0)",
		},
	)

	// StoreFailovers counts transitions from the Redis store to the
	// in-process fallback.
	StoreFailovers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_failovers_total",
			Help: "Total number of failovers to the in-process fallback store",
		},
	)

	// StoreRecoveries counts transitions back to the Redis store after a
	// successful health check.
	StoreRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_recoveries_total",
			Help: "Total number of recoveries back to the external cache store",
		},
	)
)
