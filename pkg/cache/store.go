package cache

import (
	"context"
	"time"
)

// Store is the operation surface shared by the Redis client and the
// in-process fallback. The Manager routes every call through one of the two
// implementations, selected by the health router.
//
// Keys are plain strings built by BuildKey; payloads are the opaque strings
// produced by the serialization/compression pipeline.
type Store interface {
	// Get returns the payload for key. The bool reports whether the key
	// exists; a missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores payload under key with the given TTL. TTL must be > 0.
	Set(ctx context.Context, key, payload string, ttl time.Duration) error

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Exists returns how many of the given keys exist.
	Exists(ctx context.Context, keys ...string) (int64, error)

	// Expire sets a new TTL on key. The bool reports whether the key exists.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL returns the remaining TTL for key. The bool reports whether the
	// key exists; a key without expiry reports a zero duration.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Clear removes every key matching the glob pattern and returns the
	// number removed. Patterns are the prefix globs produced by
	// NamespacePattern.
	Clear(ctx context.Context, pattern string) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Info returns store diagnostics as a flat key/value map.
	Info(ctx context.Context) (map[string]string, error)

	// Close releases the store's resources.
	Close() error
}
