// Package middleware provides HTTP interceptors that apply cache-aside and
// cache-invalidation semantics around arbitrary handlers.
//
// Cached wraps a read handler: on a hit the wrapped handler does not run and
// the recorded response is replayed; on a miss the response is captured and
// stored. CacheBusting wraps a mutating handler: the handler always runs
// first, and its keys are invalidated only after it completes successfully.
//
// Both interceptors are transparent during a cache outage: callers observe
// normal handler behavior, only the caching benefit is lost.
package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MadeSuryawan/backend-sub000/pkg/cache"
)

// cacheHeader reports whether a response was served from cache.
const cacheHeader = "X-Cache"

// cachedResponse is the stored envelope for an intercepted response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Option configures an interceptor.
type Option func(*config)

type config struct {
	ttl        time.Duration
	ttlSet     bool
	namespace  string
	compress   *bool
	keyBuilder KeyBuilder
	keys       []string
	keysFunc   KeysBuilder
}

// KeyBuilder derives the cache key for a request. See DefaultKey for the
// default derivation.
type KeyBuilder func(r *http.Request) string

// KeysBuilder derives the keys CacheBusting invalidates after a successful
// mutation.
type KeysBuilder func(r *http.Request) []string

// WithTTL sets the TTL for entries stored by Cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
		c.ttlSet = true
	}
}

// WithNamespace scopes the interceptor's cache operations to a namespace.
func WithNamespace(namespace string) Option {
	return func(c *config) { c.namespace = namespace }
}

// WithCompression overrides the manager's compression setting for entries
// stored by Cached.
func WithCompression(enabled bool) Option {
	return func(c *config) { c.compress = &enabled }
}

// WithKeyBuilder replaces the default request-key derivation of Cached.
func WithKeyBuilder(kb KeyBuilder) Option {
	return func(c *config) { c.keyBuilder = kb }
}

// Keys sets the static key list CacheBusting invalidates.
func Keys(keys ...string) Option {
	return func(c *config) { c.keys = keys }
}

// KeysFunc sets a per-request key derivation for CacheBusting. It takes
// precedence over Keys.
func KeysFunc(kb KeysBuilder) Option {
	return func(c *config) { c.keysFunc = kb }
}

func applyOptions(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// itemOptions translates the interceptor config into manager options.
func (c config) itemOptions() []cache.ItemOption {
	opts := []cache.ItemOption{cache.InNamespace(c.namespace)}
	if c.ttlSet {
		opts = append(opts, cache.WithTTL(c.ttl))
	}
	if c.compress != nil {
		opts = append(opts, cache.WithCompression(*c.compress))
	}
	return opts
}

// Cached returns middleware applying cache-aside semantics to safe requests
// (GET and HEAD); other methods pass through untouched.
//
// On a hit the recorded status, headers, and body are replayed with
// "X-Cache: HIT" and the wrapped handler does not run. On a miss the
// handler's response streams to the client while being recorded, and
// successful (2xx) responses are stored for next time.
func Cached(manager *cache.Manager, opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)
	logger := log.With().Str("component", "cache-middleware").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := DefaultKey(r)
			if cfg.keyBuilder != nil {
				key = cfg.keyBuilder(r)
			}
			itemOpts := cfg.itemOptions()

			cached, found, err := cache.GetAs[cachedResponse](r.Context(), manager, key, itemOpts...)
			if err == nil && found {
				copyHeader(w.Header(), cached.Header)
				w.Header().Set(cacheHeader, "HIT")
				w.WriteHeader(cached.Status)
				if r.Method != http.MethodHead {
					if _, err := w.Write(cached.Body); err != nil {
						logger.Debug().Err(err).Str("key", key).Msg("Failed to write cached response")
					}
				}
				return
			}

			rec := newResponseRecorder(w)
			rec.Header().Set(cacheHeader, "MISS")
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}
			header := rec.Header().Clone()
			header.Del(cacheHeader)
			entry := cachedResponse{
				Status: rec.status,
				Header: header,
				Body:   rec.body.Bytes(),
			}
			if _, err := manager.Set(r.Context(), key, entry, itemOpts...); err != nil {
				logger.Debug().Err(err).Str("key", key).Msg("Failed to store response")
			}
		})
	}
}

// CacheBusting returns middleware that invalidates cache keys after a
// mutating handler succeeds. The handler always runs first; its response is
// returned unchanged whether or not invalidation succeeds. Keys come from
// KeysFunc when set, otherwise from the static Keys list.
func CacheBusting(manager *cache.Manager, opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)
	logger := log.With().Str("component", "cache-middleware").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Only successful mutations invalidate.
			if rec.status >= 400 {
				return
			}

			keys := cfg.keys
			if cfg.keysFunc != nil {
				keys = cfg.keysFunc(r)
			}
			if len(keys) == 0 {
				return
			}

			count, err := manager.Delete(r.Context(), keys, cache.InNamespace(cfg.namespace))
			if err != nil {
				// Usage error; environmental failures are already contained
				// by the manager. Either way the handler's response stands.
				logger.Warn().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
				return
			}
			logger.Debug().Strs("keys", keys).Int64("removed", count).Msg("Invalidated cache keys")
		})
	}
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
