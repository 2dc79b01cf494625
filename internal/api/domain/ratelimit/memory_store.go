package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how many increments happen between stale record sweeps.
const sweepEvery = 1024

type Record struct {
	WindowStart time.Time
	Count       int
}

// MemoryStore keeps counters in process memory. Counts are not shared between
// instances, so it only fits single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
	calls   int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     now,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration, limit int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.calls++
	if s.calls%sweepEvery == 0 {
		s.sweep(now, window)
	}

	r, ok := s.records[key]
	if !ok || now.After(r.WindowStart.Add(window)) {
		s.records[key] = &Record{WindowStart: now, Count: 1}
		return Decision{Allowed: true, RetryAfter: window}, nil
	}

	retryAfter := r.WindowStart.Add(window).Sub(now)
	if r.Count >= limit {
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	r.Count++
	return Decision{Allowed: true, RetryAfter: retryAfter}, nil
}

// Snapshot returns a copy of the record for key.
func (s *MemoryStore) Snapshot(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	for key, r := range s.records {
		if now.After(r.WindowStart.Add(window)) {
			delete(s.records, key)
		}
	}
}
