// Package cache implements the process-wide read cache: per-entry TTL,
// explicit invalidation, and stale-serve for provider-failure degradation.
package cache

import (
	"sync"
	"time"
)

// entry is immutable once stored; Put replaces the whole pointer so
// concurrent readers never observe a half-written value
type entry struct {
	value       interface{}
	createdAt   time.Time
	ttl         time.Duration
	invalidated bool
}

func (e *entry) fresh(now time.Time) bool {
	if e.invalidated {
		return false
	}
	return now.Sub(e.createdAt) < e.ttl
}

// Store is an in-process key-value cache with per-entry TTL
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewWithClock creates a store with a custom clock, for tests
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

// Get returns the value if the entry exists and is still fresh
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !e.fresh(s.now()) {
		return nil, false
	}
	return e.value, true
}

// GetStale returns the value regardless of freshness. Used only as a
// degradation fallback when the provider is unavailable; stale values
// remain served until overwritten by Put.
func (s *Store) GetStale(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores a value with the given TTL, replacing any previous entry
func (s *Store) Put(key string, value interface{}, ttl time.Duration) {
	e := &entry{
		value:     value,
		createdAt: s.now(),
		ttl:       ttl,
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Invalidate removes freshness from an entry. The stale value stays
// available through GetStale until the key is overwritten.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	stale := *e
	stale.invalidated = true
	s.entries[key] = &stale
}

// Len returns the number of entries, fresh or stale
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
