package cache

import "time"

// ItemOption adjusts a single cache operation. Options that do not apply to
// an operation are ignored (e.g. WithTTL on Get).
type ItemOption func(*itemOptions)

type itemOptions struct {
	namespace    string
	ttl          time.Duration
	ttlSet       bool
	compress     *bool
	forceRefresh bool
}

func applyItemOptions(opts []ItemOption) itemOptions {
	var o itemOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// InNamespace scopes the operation to a namespace. Namespaces partition the
// keyspace; the same caller key in two namespaces refers to two independent
// entries.
func InNamespace(namespace string) ItemOption {
	return func(o *itemOptions) { o.namespace = namespace }
}

// WithTTL sets the TTL for a write. The effective TTL is clamped to
// [1s, Config.MaxTTL]; without this option Config.DefaultTTL applies.
func WithTTL(ttl time.Duration) ItemOption {
	return func(o *itemOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

// WithCompression overrides Config.CompressionEnabled for a single write.
// The size threshold still applies.
func WithCompression(enabled bool) ItemOption {
	return func(o *itemOptions) { o.compress = &enabled }
}

// WithForceRefresh makes GetOrSet skip the cache lookup and always invoke
// the loader, repopulating the entry on success.
func WithForceRefresh() ItemOption {
	return func(o *itemOptions) { o.forceRefresh = true }
}
