// Command cache-proxy runs the caching engine behind an HTTP server: a
// management surface for operators (stats, ping, clear, reset-stats, info),
// Prometheus metrics, and a small demo API wrapped in the caching
// interceptors.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/MadeSuryawan/backend-sub000/pkg/cache"
	"github.com/MadeSuryawan/backend-sub000/pkg/logging"
	"github.com/MadeSuryawan/backend-sub000/pkg/middleware"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Pretty: getEnvBool("LOG_PRETTY", false),
		Output: os.Stderr,
	})

	cfg := configFromEnv()
	manager, err := cache.NewManager(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache manager")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize cache manager")
	}

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      newMux(manager, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting cache proxy server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Server shutdown error")
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Cache manager shutdown error")
	}
}

// configFromEnv builds the cache configuration from environment variables,
// starting from the defaults.
func configFromEnv() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Addr = getEnv("CACHE_REDIS_ADDR", cfg.Addr)
	cfg.DB = getEnvInt("CACHE_REDIS_DB", cfg.DB)
	cfg.Username = getEnv("CACHE_REDIS_USERNAME", cfg.Username)
	cfg.Password = getEnv("CACHE_REDIS_PASSWORD", cfg.Password)
	cfg.TLS = getEnvBool("CACHE_REDIS_TLS", cfg.TLS)
	cfg.PoolSize = getEnvInt("CACHE_POOL_SIZE", cfg.PoolSize)
	cfg.HealthCheckInterval = getEnvDuration("CACHE_HEALTH_INTERVAL", cfg.HealthCheckInterval)
	cfg.DefaultTTL = getEnvDuration("CACHE_DEFAULT_TTL", cfg.DefaultTTL)
	cfg.MaxTTL = getEnvDuration("CACHE_MAX_TTL", cfg.MaxTTL)
	cfg.KeyPrefix = getEnv("CACHE_KEY_PREFIX", cfg.KeyPrefix)
	cfg.CompressionEnabled = getEnvBool("CACHE_COMPRESSION", cfg.CompressionEnabled)
	cfg.CompressionThreshold = getEnvInt("CACHE_COMPRESSION_THRESHOLD", cfg.CompressionThreshold)
	cfg.StatisticsEnabled = getEnvBool("CACHE_STATS", cfg.StatisticsEnabled)
	return cfg
}

// newMux wires the management surface, metrics, and the demo API.
func newMux(manager *cache.Manager, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Management surface: thin pass-throughs to the manager's public API.
	mux.HandleFunc("GET /admin/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.Statistics())
	})
	mux.HandleFunc("GET /admin/cache/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": manager.Ping(r.Context())})
	})
	mux.HandleFunc("DELETE /admin/cache/clear", func(w http.ResponseWriter, r *http.Request) {
		count, err := manager.Clear(r.Context(), r.URL.Query().Get("namespace"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": count})
	})
	mux.HandleFunc("POST /admin/cache/reset-stats", func(w http.ResponseWriter, _ *http.Request) {
		manager.ResetStatistics()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /admin/cache/info", func(w http.ResponseWriter, r *http.Request) {
		info, err := manager.Info(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	// Demo API: a slow read wrapped in the cache-aside interceptor, and a
	// mutation wrapped in the invalidation interceptor.
	store := newItemStore()

	listItems := middleware.Cached(manager,
		middleware.WithNamespace("api"),
		middleware.WithTTL(30*time.Second),
	)(http.HandlerFunc(store.list))

	createItem := middleware.CacheBusting(manager,
		middleware.WithNamespace("api"),
		middleware.Keys("GET:api/items"),
	)(http.HandlerFunc(store.create))

	mux.Handle("GET /api/items", listItems)
	mux.Handle("POST /api/items", createItem)

	logger.Debug().Msg("Routes registered")
	return mux
}

// itemStore is the demo API's backing data: a deliberately slow list read
// so the caching benefit is visible.
type itemStore struct {
	mu    sync.Mutex
	items []string
}

func newItemStore() *itemStore {
	return &itemStore{items: []string{"alpha", "beta"}}
}

func (s *itemStore) list(w http.ResponseWriter, _ *http.Request) {
	time.Sleep(50 * time.Millisecond) // simulated expensive computation
	s.mu.Lock()
	items := append([]string(nil), s.items...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *itemStore) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.items = append(s.items, body.Name)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
