// Package cache provides the in-memory response cache used by the dispatch
// layer: an LRU with per-entry TTL keyed by request fingerprint.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	element   *list.Element
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// ResponseCache is a thread-safe LRU cache with per-entry TTL.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List
	maxSize int
	hits    uint64
	misses  uint64
}

// New creates a ResponseCache holding at most maxSize entries.
func New(maxSize int) *ResponseCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &ResponseCache{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Has reports whether a live entry exists for key.
func (c *ResponseCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Get returns the value stored under key, expiring stale entries on the way.
func (c *ResponseCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists || e.expired(time.Now()) {
		c.misses++
		if exists {
			c.removeEntry(key)
		}
		return nil, false
	}

	c.lruList.MoveToFront(e.element)
	c.hits++
	return e.value, true
}

// Put stores value under key for ttlMinutes, evicting the least recently
// used entry when the cache is full.
func (c *ResponseCache) Put(key string, value interface{}, ttlMinutes int) {
	if ttlMinutes <= 0 {
		return
	}
	expiresAt := time.Now().Add(time.Duration(ttlMinutes) * time.Minute)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.entries[key]; exists {
		e.value = value
		e.expiresAt = expiresAt
		c.lruList.MoveToFront(e.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lruList.PushFront(key)
	c.entries[key] = e
}

// Invalidate removes the entry stored under key, if any.
func (c *ResponseCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeEntry(key)
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lruList.Init()
}

// Stats describes cache effectiveness.
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns a snapshot of cache statistics.
func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// CleanupExpired removes all expired entries and returns how many were
// dropped. Intended for a periodic background sweep.
func (c *ResponseCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []string
	for key, e := range c.entries {
		if e.expired(now) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		c.removeEntry(key)
	}
	return len(stale)
}

// StartCleanupWorker sweeps expired entries every interval until stopCh
// closes.
func (c *ResponseCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// removeEntry deletes one entry. Caller holds the lock.
func (c *ResponseCache) removeEntry(key string) {
	if e, exists := c.entries[key]; exists {
		c.lruList.Remove(e.element)
		delete(c.entries, key)
	}
}

// evictLRU drops the least recently used entry. Caller holds the lock.
func (c *ResponseCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, key)
}
