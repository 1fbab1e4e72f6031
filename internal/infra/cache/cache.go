// Package cache provides a simple in-memory TTL cache.
// In production, this could be backed by Redis.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	storedAt  time.Time
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL and a bounded
// entry count. When full, the oldest entry is evicted.
type InMemory[T any] struct {
	mu      sync.RWMutex
	items   map[string]entry[T]
	ttl     time.Duration
	maxSize int
	done    chan struct{}
}

// New creates a new in-memory cache with the given TTL and maximum
// entry count. A maxSize of 0 means unbounded.
func New[T any](ttl time.Duration, maxSize int) *InMemory[T] {
	c := &InMemory[T]{
		items:   make(map[string]entry[T]),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL, evicting the
// oldest entry if the cache is full.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.evictOldestLocked()
		}
	}
	now := time.Now()
	c.items[key] = entry[T]{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (c *InMemory[T]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Len reports the current number of entries, expired ones included.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine.
func (c *InMemory[T]) Close() {
	close(c.done)
}

// evictOldestLocked drops the entry with the earliest storedAt.
// Caller must hold the write lock.
func (c *InMemory[T]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, v := range c.items {
		if first || v.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = v.storedAt
			first = false
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
