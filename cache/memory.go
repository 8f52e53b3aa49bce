// Package cache provides caching implementations for Trellis resolutions.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

// Compile-time interface check.
var _ trellis.Cache = (*Memory)(nil)

// Memory is an in-memory LRU-like cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	set       capability.Set
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached capability set.
func (m *Memory) Get(_ context.Context, bedID id.BedID, userID string) (capability.Set, bool) {
	key := cacheKey(bedID, userID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.set, true
}

// Set stores a resolved capability set.
func (m *Memory) Set(_ context.Context, bedID id.BedID, userID string, set capability.Set) {
	key := cacheKey(bedID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict oldest entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		set:       set,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateBed removes all cached resolutions for a bed.
func (m *Memory) InvalidateBed(_ context.Context, bedID id.BedID) {
	prefix := bedID.String() + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateMember removes the cached resolution for one user on a bed.
func (m *Memory) InvalidateMember(_ context.Context, bedID id.BedID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey(bedID, userID))
}

func cacheKey(bedID id.BedID, userID string) string {
	return bedID.String() + ":" + userID
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
