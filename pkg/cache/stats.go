package cache

import "sync/atomic"

// StatsSnapshot is an immutable view of the statistics counters. Snapshot
// returns a copy, never a live reference, so readers cannot observe partial
// updates.
type StatsSnapshot struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Sets         int64   `json:"sets"`
	Deletes      int64   `json:"deletes"`
	Errors       int64   `json:"errors"`
	BytesRead    int64   `json:"bytes_read"`
	BytesWritten int64   `json:"bytes_written"`
	HitRate      float64 `json:"hit_rate"`
}

// Stats tracks cache operation counters. All mutations are atomic, so the
// tracker is safe for concurrent use without external locking. When
// disabled, the record methods are no-ops and Snapshot returns zeros.
type Stats struct {
	enabled bool

	hits         atomic.Int64
	misses       atomic.Int64
	sets         atomic.Int64
	deletes      atomic.Int64
	errors       atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
}

// NewStats creates a statistics tracker.
func NewStats(enabled bool) *Stats {
	return &Stats{enabled: enabled}
}

// RecordHit increments the hit counter and counts bytes served from cache.
func (s *Stats) RecordHit(bytes int) {
	if !s.enabled {
		return
	}
	s.hits.Add(1)
	s.bytesRead.Add(int64(bytes))
}

// RecordMiss increments the miss counter.
func (s *Stats) RecordMiss() {
	if !s.enabled {
		return
	}
	s.misses.Add(1)
}

// RecordSet increments the set counter and counts bytes written.
func (s *Stats) RecordSet(bytes int) {
	if !s.enabled {
		return
	}
	s.sets.Add(1)
	s.bytesWritten.Add(int64(bytes))
}

// RecordDelete increments the delete counter by n.
func (s *Stats) RecordDelete(n int64) {
	if !s.enabled {
		return
	}
	s.deletes.Add(n)
}

// RecordError increments the error counter.
func (s *Stats) RecordError() {
	if !s.enabled {
		return
	}
	s.errors.Add(1)
}

// Snapshot returns a copy of the current counters with the derived hit rate.
// HitRate is hits/(hits+misses), 0 when no gets have been recorded.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		Sets:         s.sets.Load(),
		Deletes:      s.deletes.Load(),
		Errors:       s.errors.Load(),
		BytesRead:    s.bytesRead.Load(),
		BytesWritten: s.bytesWritten.Load(),
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRate = float64(snap.Hits) / float64(total)
	}
	return snap
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.sets.Store(0)
	s.deletes.Store(0)
	s.errors.Store(0)
	s.bytesRead.Store(0)
	s.bytesWritten.Store(0)
}
