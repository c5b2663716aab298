package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c := New(10)

	c.Put("k", "v", 5)

	assert.True(t, c.Has("k"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("absent")
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	c := New(10)

	c.Put("k", "v1", 5)
	c.Put("k", "v2", 5)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestCache_NonPositiveTTLIgnored(t *testing.T) {
	c := New(10)

	c.Put("k", "v", 0)
	c.Put("k2", "v", -1)

	assert.False(t, c.Has("k"))
	assert.False(t, c.Has("k2"))
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(3)

	c.Put("a", 1, 5)
	c.Put("b", 2, 5)
	c.Put("c", 3, 5)

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", 4, 5)

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"), "least recently used entry should be evicted")
	assert.True(t, c.Has("c"))
	assert.True(t, c.Has("d"))
	assert.Equal(t, 3, c.Stats().Size)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(10)

	c.Put("k", "v", 5)
	c.Invalidate("k")

	assert.False(t, c.Has("k"))

	// Invalidating an absent key is a no-op.
	c.Invalidate("absent")
}

func TestCache_Clear(t *testing.T) {
	c := New(10)

	c.Put("a", 1, 5)
	c.Put("b", 2, 5)
	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	assert.False(t, c.Has("a"))
}

func TestCache_Stats(t *testing.T) {
	c := New(10)
	c.Put("k", "v", 5)

	_, _ = c.Get("k")      // hit
	_, _ = c.Get("absent") // miss

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.Equal(t, 10, stats.MaxSize)
}

func TestCache_CleanupExpired(t *testing.T) {
	c := New(10)

	c.Put("live", "v", 60)
	c.Put("stale", "v", 1)

	// Force the second entry past its deadline.
	c.mu.Lock()
	c.entries["stale"].expiresAt = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	removed := c.CleanupExpired()
	assert.Equal(t, 1, removed)
	assert.True(t, c.Has("live"))
	assert.False(t, c.Has("stale"))
}

func TestCache_GetExpiresStaleEntries(t *testing.T) {
	c := New(10)
	c.Put("k", "v", 1)

	c.mu.Lock()
	c.entries["k"].expiresAt = time.Now().Add(-time.Second)
	c.mu.Unlock()

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size, "stale entry should be removed on read")
}

func TestCache_DefaultSize(t *testing.T) {
	c := New(0)
	assert.Equal(t, 1024, c.Stats().MaxSize)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(64)
	done := make(chan struct{})

	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%32)
				c.Put(key, g, 5)
				c.Get(key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
