package cache

import "time"

// Config holds the connection and behavior parameters for a Manager. The
// composition root owns it: populate from environment or flags, pass to
// NewManager once at startup.
type Config struct {
	// Connection parameters for the Redis store.
	Addr     string
	DB       int
	Username string
	Password string
	TLS      bool

	// Pool and timeout settings. Operations beyond PoolSize queue up to
	// PoolTimeout before failing with a store error.
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration

	// HealthCheckInterval is how often the router pings the Redis store,
	// independent of request traffic. FailureThreshold consecutive
	// failures mark the store degraded.
	HealthCheckInterval time.Duration
	FailureThreshold    int

	// Behavior parameters.
	DefaultTTL time.Duration // TTL used when a Set omits one
	MaxTTL     time.Duration // upper clamp for any requested TTL
	KeyPrefix  string        // prepended to every key, see BuildKey

	CompressionEnabled   bool
	CompressionThreshold int // serialized bytes at or above this compress

	StatisticsEnabled bool

	// SweepInterval is the fallback store's expired-entry sweep interval.
	SweepInterval time.Duration
}

// DefaultConfig returns a safe default configuration for local development.
func DefaultConfig() Config {
	return Config{
		Addr:                 "localhost:6379",
		PoolSize:             10,
		DialTimeout:          5 * time.Second,
		ReadTimeout:          3 * time.Second,
		WriteTimeout:         3 * time.Second,
		PoolTimeout:          4 * time.Second,
		HealthCheckInterval:  15 * time.Second,
		FailureThreshold:     DefaultFailureThreshold,
		DefaultTTL:           5 * time.Minute,
		MaxTTL:               24 * time.Hour,
		KeyPrefix:            "cache:",
		CompressionEnabled:   true,
		CompressionThreshold: 1024,
		StatisticsEnabled:    true,
		SweepInterval:        time.Minute,
	}
}
