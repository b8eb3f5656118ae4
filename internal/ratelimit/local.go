package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per key in memory. Buckets idle for
// longer than a window are dropped on the next prune.
type LocalLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastSeen func() time.Time
	pruned   time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewLocalLimiter allows limit requests per window per key.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		buckets:  make(map[string]*bucket),
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		idle:     window,
		lastSeen: time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) bool {
	now := l.lastSeen()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.pruned) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.pruned = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}
