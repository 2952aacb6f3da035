package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// clearScanCount is the SCAN batch size used by Clear.
const clearScanCount = 500

// RedisStore is the pooled Store implementation backed by Redis. Connection
// pooling, timeouts, and queueing beyond pool capacity are handled by the
// go-redis client; callers that exceed the pool wait up to the configured
// pool timeout before the operation fails with a store error.
type RedisStore struct {
	client *redis.Client

	// ownsClient marks clients created by NewRedisStore; only those are
	// closed by Close.
	ownsClient bool
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store from the connection parameters
// in cfg. The store owns the client and closes it on Close.
func NewRedisStore(cfg Config) *RedisStore {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &RedisStore{client: redis.NewClient(opts), ownsClient: true}
}

// NewRedisStoreFromClient wraps an existing Redis client. The caller owns
// the client lifecycle; Close is a no-op.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

// Get returns the payload stored under key. A missing key is a miss, not an
// error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	payload, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return payload, true, nil
}

// Set stores payload under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key, payload string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the given keys and returns how many existed.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	count, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return count, nil
}

// Exists returns how many of the given keys exist.
func (s *RedisStore) Exists(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	count, err := s.client.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists: %w", err)
	}
	return count, nil
}

// Expire sets a new TTL on key.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis expire: %w", err)
	}
	return ok, nil
}

// TTL returns the remaining TTL for key. Redis reports -2 for a missing key
// and -1 for a key without expiry; the latter maps to (0, true).
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis ttl: %w", err)
	}
	// go-redis maps the sentinel replies to -2s (missing) and -1s (no expiry).
	if d == -2*time.Second {
		return 0, false, nil
	}
	if d < 0 {
		return 0, true, nil
	}
	return d, true, nil
}

// Clear removes every key matching pattern using SCAN, deleting in batches
// so large namespaces do not block the server the way KEYS would.
func (s *RedisStore) Clear(ctx context.Context, pattern string) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, pattern, clearScanCount).Iterator()

	batch := make([]string, 0, clearScanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		count, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += count
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= clearScanCount {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("redis clear: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis clear: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("redis clear: %w", err)
	}
	return removed, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Info returns the parsed INFO reply. Section headers and blank lines are
// skipped.
func (s *RedisStore) Info(ctx context.Context) (map[string]string, error) {
	raw, err := s.client.Info(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis info: %w", err)
	}
	info := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			info[k] = v
		}
	}
	return info, nil
}

// Close closes the underlying client when the store created it.
func (s *RedisStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
