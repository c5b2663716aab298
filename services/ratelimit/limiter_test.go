package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestKey(t *testing.T) {
	if got := Key("svc-a", "openai"); got != "svc-a|openai" {
		t.Errorf("Key = %q", got)
	}
}

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := New(1, 3, zap.NewNop())
	key := Key("svc-a", "openai")

	for i := 0; i < 3; i++ {
		if !l.Allow(key) {
			t.Fatalf("request %d within burst should be admitted", i)
		}
	}
	if l.Allow(key) {
		t.Error("request past burst should be rejected")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, 1, zap.NewNop())

	if !l.Allow(Key("svc-a", "openai")) {
		t.Fatal("first request for key A rejected")
	}
	if l.Allow(Key("svc-a", "openai")) {
		t.Fatal("key A should be exhausted")
	}
	if !l.Allow(Key("svc-b", "openai")) {
		t.Error("key B has its own bucket")
	}
	if !l.Allow(Key("svc-a", "gemini")) {
		t.Error("same caller against another provider has its own bucket")
	}
}

func TestLimiter_Refills(t *testing.T) {
	l := New(100, 1, zap.NewNop())
	key := Key("svc-a", "openai")

	if !l.Allow(key) {
		t.Fatal("first request rejected")
	}
	if l.Allow(key) {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.Allow(key) {
		t.Error("bucket should have refilled")
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l := New(1, 1, zap.NewNop())
	l.Allow(Key("svc-a", "openai"))
	l.Allow(Key("svc-b", "openai"))

	if got := l.Size(); got != 2 {
		t.Fatalf("Size = %d", got)
	}

	// Nothing is older than an hour yet.
	if evicted := l.EvictIdle(time.Hour); evicted != 0 {
		t.Errorf("evicted = %d, want 0", evicted)
	}

	l.mu.Lock()
	l.buckets[Key("svc-a", "openai")].lastSeen = time.Now().Add(-2 * time.Hour)
	l.mu.Unlock()

	if evicted := l.EvictIdle(time.Hour); evicted != 1 {
		t.Errorf("evicted = %d, want 1", evicted)
	}
	if got := l.Size(); got != 1 {
		t.Errorf("Size = %d after eviction", got)
	}
}

func TestLimiter_MinimumBurst(t *testing.T) {
	l := New(1, 0, zap.NewNop())
	if !l.Allow(Key("svc-a", "openai")) {
		t.Error("zero burst should be clamped to one")
	}
}
