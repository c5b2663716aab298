// Package ratelimit provides per-key token-bucket rate limiting, keyed by
// caller identity and provider name. The dispatch core is unaware of it; the
// HTTP layer applies it as middleware.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter maintains one token bucket per caller|provider key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	logger  *zap.Logger
}

// New creates a limiter allowing rps sustained requests with the given
// burst per key.
func New(rps float64, burst int, logger *zap.Logger) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
	}
}

// Key builds the bucket key for one caller and provider.
func Key(callerID, provider string) string {
	return callerID + "|" + provider
}

// Allow reports whether one more request is admitted under key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	allowed := b.limiter.Allow()
	if !allowed {
		l.logger.Warn("rate limit exceeded", zap.String("key", key))
	}
	return allowed
}

// EvictIdle drops buckets unused for at least idleFor and returns how many
// were removed. Intended for a periodic background sweep.
func (l *Limiter) EvictIdle(idleFor time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-idleFor)
	evicted := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of live buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
