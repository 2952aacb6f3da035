package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// memoryEntry is a stored payload with its absolute expiry.
type memoryEntry struct {
	payload   string
	expiresAt time.Time
}

// expired reports whether the entry is past its expiry. A zero expiresAt
// means no expiry.
func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// MemoryStore is the in-process fallback Store. It implements the same
// operation surface as RedisStore over a mutex-guarded map, with lazy expiry
// on read and a periodic background sweep. The Manager routes to it while
// the Redis store is marked degraded.
//
// Entries written here during an outage are not reconciled into Redis on
// recovery; they age out via TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a fallback store and starts its expiry sweeper.
// sweepInterval <= 0 defaults to one minute.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.wg.Add(1)
	go s.sweep(sweepInterval)
	return s
}

func (s *MemoryStore) sweep(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if entry.expired(now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Get returns the payload for key, treating expired entries as missing.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.payload, true, nil
}

// Set stores payload under key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key, payload string, ttl time.Duration) error {
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes the given keys and returns how many existed.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) (int64, error) {
	now := time.Now()
	var count int64
	s.mu.Lock()
	for _, key := range keys {
		if entry, ok := s.entries[key]; ok {
			if !entry.expired(now) {
				count++
			}
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return count, nil
}

// Exists returns how many of the given keys exist and are unexpired.
func (s *MemoryStore) Exists(_ context.Context, keys ...string) (int64, error) {
	now := time.Now()
	var count int64
	s.mu.Lock()
	for _, key := range keys {
		if entry, ok := s.entries[key]; ok && !entry.expired(now) {
			count++
		}
	}
	s.mu.Unlock()
	return count, nil
}

// Expire sets a new TTL on an existing key.
func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || entry.expired(time.Now()) {
		delete(s.entries, key)
		return false, nil
	}
	entry.expiresAt = time.Now().Add(ttl)
	s.entries[key] = entry
	return true, nil
}

// TTL returns the remaining TTL for key. A key without expiry reports zero.
func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || entry.expired(time.Now()) {
		delete(s.entries, key)
		return 0, false, nil
	}
	if entry.expiresAt.IsZero() {
		return 0, true, nil
	}
	return time.Until(entry.expiresAt), true, nil
}

// Clear removes every key matching pattern. Only the prefix globs produced
// by NamespacePattern are supported, matching the shapes the Redis store is
// asked for.
func (s *MemoryStore) Clear(_ context.Context, pattern string) (int64, error) {
	now := time.Now()
	var removed int64
	s.mu.Lock()
	for key, entry := range s.entries {
		if matchPattern(pattern, key) {
			if !entry.expired(now) {
				removed++
			}
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return removed, nil
}

// matchPattern matches a key against a prefix glob ("prefix*") or an exact
// pattern.
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}

// Ping always succeeds for the in-process store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Info returns the current entry count.
func (s *MemoryStore) Info(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	count := len(s.entries)
	s.mu.Unlock()
	return map[string]string{
		"store":   "memory",
		"entries": strconv.Itoa(count),
	}, nil
}

// Close stops the sweeper and waits for it to exit. Safe to call more than
// once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
	return nil
}
