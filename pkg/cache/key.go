package cache

import "strings"

// BuildKey builds the full storage key from the configured prefix, an
// optional namespace, and the caller-supplied key.
//
// Format: prefix + namespace + ":" + key (namespace omitted when empty).
//
// This is the single source of truth for key shape. Identical inputs always
// produce identical keys, and namespaces partition the keyspace so the same
// caller key in different namespaces never collides.
func BuildKey(prefix, namespace, key string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(namespace) + 1 + len(key))
	b.WriteString(prefix)
	if namespace != "" {
		b.WriteString(namespace)
		b.WriteByte(':')
	}
	b.WriteString(key)
	return b.String()
}

// NamespacePattern returns the glob pattern matching every key in the given
// namespace, or every key under the prefix when namespace is empty. Used by
// Clear on both store implementations.
func NamespacePattern(prefix, namespace string) string {
	if namespace == "" {
		return prefix + "*"
	}
	return prefix + namespace + ":*"
}
