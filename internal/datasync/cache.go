package datasync

import (
	"sync"
	"time"

	"github.com/yungbote/finboard-backend/internal/registry"
)

// CacheEntry is the last-known state for one entity type. Version
// counts successful fetches and is never reset; Timestamp is
// monotonically non-decreasing.
type CacheEntry struct {
	Data      []registry.Record
	Timestamp time.Time
	Version   uint64
}

// CacheStore holds one entry per entity type for the lifetime of the
// orchestrator. Entries start empty (zero timestamp, version 0).
type CacheStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[registry.EntityType]CacheEntry
}

func NewCacheStore() *CacheStore {
	entries := make(map[registry.EntityType]CacheEntry, len(registry.AllEntityTypes()))
	for _, t := range registry.AllEntityTypes() {
		entries[t] = CacheEntry{Data: []registry.Record{}}
	}
	return &CacheStore{now: time.Now, entries: entries}
}

func (s *CacheStore) Read(t registry.EntityType) CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[t]
}

// Write records a successful fetch: version advances by exactly one
// and the timestamp moves forward, never back.
func (s *CacheStore) Write(t registry.EntityType, data []registry.Record) CacheEntry {
	if data == nil {
		data = []registry.Record{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[t]
	ts := s.now()
	if ts.Before(entry.Timestamp) {
		ts = entry.Timestamp
	}
	entry = CacheEntry{
		Data:      data,
		Timestamp: ts,
		Version:   entry.Version + 1,
	}
	s.entries[t] = entry
	return entry
}

// ReplaceData swaps an entry's data without touching its version or
// timestamp. Used by offline hydration and optimistic mutation, which
// must not count as fetches.
func (s *CacheStore) ReplaceData(t registry.EntityType, data []registry.Record) {
	if data == nil {
		data = []registry.Record{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[t]
	entry.Data = data
	s.entries[t] = entry
}

func (s *CacheStore) IsFresh(t registry.EntityType, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.entries[t]
	if entry.Timestamp.IsZero() {
		return false
	}
	return s.now().Sub(entry.Timestamp) < ttl
}

// Stale returns the entity types whose entries are at least ttl old,
// in canonical order.
func (s *CacheStore) Stale(ttl time.Duration) []registry.EntityType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var stale []registry.EntityType
	for _, t := range registry.AllEntityTypes() {
		entry := s.entries[t]
		if entry.Timestamp.IsZero() || now.Sub(entry.Timestamp) >= ttl {
			stale = append(stale, t)
		}
	}
	return stale
}
