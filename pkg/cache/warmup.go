package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LoaderFunc produces the value for a single key during warm-up.
type LoaderFunc func(ctx context.Context, key string) (any, error)

// WarmerConfig holds warm-up pool configuration.
type WarmerConfig struct {
	// Concurrency is the number of parallel loader workers.
	Concurrency int

	// Timeout bounds a single key's load-and-store.
	Timeout time.Duration

	// Namespace and TTL apply to every warmed entry.
	Namespace string
	TTL       time.Duration
}

// DefaultWarmerConfig returns safe defaults for startup warm-up.
func DefaultWarmerConfig() WarmerConfig {
	return WarmerConfig{
		Concurrency: 8,
		Timeout:     10 * time.Second,
	}
}

// Warmer pre-populates the cache for a set of hot keys using a bounded
// worker pool. Typical use is at process startup, before traffic arrives.
type Warmer struct {
	manager *Manager
	cfg     WarmerConfig
}

// NewWarmer creates a warmer over the given manager.
func NewWarmer(manager *Manager, cfg WarmerConfig) *Warmer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultWarmerConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWarmerConfig().Timeout
	}
	return &Warmer{manager: manager, cfg: cfg}
}

// Warm loads and stores every key in parallel. It returns the number of
// keys successfully cached and a map of per-key loader failures. Loader
// failures do not abort the run; a cancelled ctx does.
func (w *Warmer) Warm(ctx context.Context, keys []string, loader LoaderFunc) (int, map[string]error) {
	start := time.Now()
	jobs := make(chan string)

	var mu sync.Mutex
	var warmed int
	failures := make(map[string]error)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				if err := w.warmOne(ctx, key, loader); err != nil {
					mu.Lock()
					failures[key] = err
					mu.Unlock()
					continue
				}
				mu.Lock()
				warmed++
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			mu.Lock()
			failures[key] = ctx.Err()
			mu.Unlock()
		case jobs <- key:
		}
	}
	close(jobs)
	wg.Wait()

	log.Debug().
		Int("keys", len(keys)).
		Int("warmed", warmed).
		Int("failed", len(failures)).
		Dur("duration", time.Since(start)).
		Msg("Cache warm-up finished")

	return warmed, failures
}

func (w *Warmer) warmOne(ctx context.Context, key string, loader LoaderFunc) error {
	loadCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	value, err := loader(loadCtx, key)
	if err != nil {
		return err
	}

	opts := []ItemOption{InNamespace(w.cfg.Namespace)}
	if w.cfg.TTL > 0 {
		opts = append(opts, WithTTL(w.cfg.TTL))
	}
	if _, err := w.manager.Set(loadCtx, key, value, opts...); err != nil {
		return err
	}
	return nil
}
