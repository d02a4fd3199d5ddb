package limiter

import (
	"context"
	"sync"
	"time"
)

const idleBucketTTL = 5 * time.Minute

// bucket is a token bucket for one client. It starts full, holds at most
// capacity tokens and refills continuously at rate tokens per second.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client in process memory.
// Suitable for a single API instance.
type MemoryLimiter struct {
	capacity float64
	rate     float64
	now      func() time.Time

	buckets sync.Map // string -> *bucket

	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter allows limit requests per window per client, with bursts
// up to limit.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		capacity:    float64(limit),
		rate:        float64(limit) / window.Seconds(),
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Allow consumes one token from key's bucket
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()

	v, ok := l.buckets.Load(key)
	if !ok {
		v, _ = l.buckets.LoadOrStore(key, &bucket{tokens: l.capacity, lastSeen: now})
	}
	b := v.(*bucket)

	b.mu.Lock()
	elapsed := now.Sub(b.lastSeen).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*l.rate, l.capacity)
		b.lastSeen = now
	}
	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	b.mu.Unlock()

	l.sweep(now)
	return allowed
}

// sweep drops buckets idle for longer than idleBucketTTL, at most once per TTL
func (l *MemoryLimiter) sweep(now time.Time) {
	l.cleanupMu.Lock()
	defer l.cleanupMu.Unlock()

	if now.Sub(l.lastCleanup) < idleBucketTTL {
		return
	}
	threshold := now.Add(-idleBucketTTL)

	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := b.lastSeen.Before(threshold)
		b.mu.Unlock()
		if idle {
			l.buckets.Delete(key)
		}
		return true
	})
	l.lastCleanup = now
}

// Close is a no-op for the in-memory limiter
func (l *MemoryLimiter) Close() error {
	return nil
}
