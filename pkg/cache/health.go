package cache

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultFailureThreshold is the number of consecutive store failures
	// (operations or health probes) before the router fails over to the
	// in-process fallback.
	DefaultFailureThreshold = 3

	// probeTimeout bounds a single health-check ping.
	probeTimeout = 3 * time.Second

	// probeBackoffCap caps the exponential backoff between probes while
	// the primary store is down, as a multiple of the base interval.
	probeBackoffCap = 4
)

// Router selects the active Store for every operation. A background loop
// pings the primary store on a fixed interval, independent of request
// traffic; repeated failures mark the primary degraded and route operations
// to the fallback until a probe succeeds again.
//
// Entries written to the fallback while degraded are not reconciled into
// the primary on recovery.
type Router struct {
	primary   Store
	fallback  Store
	interval  time.Duration
	threshold int
	logger    zerolog.Logger

	mu       sync.Mutex
	failures int
	degraded bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRouter creates a health-check router over the two stores. interval <= 0
// disables the background probe loop (operation failures still fail over);
// threshold <= 0 uses DefaultFailureThreshold.
func NewRouter(primary, fallback Store, interval time.Duration, threshold int, logger zerolog.Logger) *Router {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		primary:   primary,
		fallback:  fallback,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the background health-check loop.
func (r *Router) Start() {
	StoreHealthy.Set(1)
	if r.interval <= 0 {
		return
	}
	r.wg.Add(1)
	go r.run()
}

// Stop terminates the health-check loop and waits for it to exit. Safe to
// call more than once.
func (r *Router) Stop() {
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
	})
}

// Active returns the store operations should be issued against.
func (r *Router) Active() Store {
	if r.Degraded() {
		return r.fallback
	}
	return r.primary
}

// ActiveLayer names the active store for metric labels.
func (r *Router) ActiveLayer() string {
	if r.Degraded() {
		return "memory"
	}
	return "redis"
}

// Degraded reports whether operations are being routed to the fallback.
func (r *Router) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// MarkFailure records a store-class failure. Reaching the consecutive
// failure threshold fails the router over to the fallback store.
func (r *Router) MarkFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	if r.degraded || r.failures < r.threshold {
		return
	}
	r.degraded = true
	StoreHealthy.Set(0)
	StoreFailovers.Inc()
	r.logger.Warn().
		Int("consecutive_failures", r.failures).
		Msg("Cache store degraded, failing over to in-process fallback")
}

// markSuccess records a healthy probe, recovering from degraded mode if
// needed.
func (r *Router) markSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = 0
	if !r.degraded {
		return
	}
	r.degraded = false
	StoreHealthy.Set(1)
	StoreRecoveries.Inc()
	r.logger.Info().Msg("Cache store recovered, resuming external store routing")
}

// run probes the primary on the configured interval. While degraded, the
// delay between probes backs off exponentially with ±20% jitter, capped at
// probeBackoffCap times the base interval.
func (r *Router) run() {
	defer r.wg.Done()
	delay := r.interval
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := r.probe(); err != nil {
			r.MarkFailure()
			delay = time.Duration(float64(delay) * 2 * (0.8 + rand.Float64()*0.4))
			if max := r.interval * probeBackoffCap; delay > max {
				delay = max
			}
			r.logger.Debug().
				Err(err).
				Dur("next_probe", delay).
				Msg("Health probe failed")
			continue
		}
		r.markSuccess()
		delay = r.interval
	}
}

func (r *Router) probe() error {
	ctx, cancel := context.WithTimeout(r.ctx, probeTimeout)
	defer cancel()
	return r.primary.Ping(ctx)
}
