// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const idleTTL = time.Hour

// KeyedLimiter rate limits requests per key (client address, chat id).
// Buckets of keys that stay idle for an hour are dropped.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

// New creates a limiter allowing perMinute requests with the given burst.
// perMinute <= 0 disables limiting.
func New(perMinute, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		buckets: cache.New(idleTTL, 10*time.Minute),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

// Enabled reports whether requests are limited at all.
func (l *KeyedLimiter) Enabled() bool {
	return l != nil && l.limit > 0
}

// Allow consumes one token of key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	return l.bucket(key).Allow()
}

func (l *KeyedLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		limiter := v.(*rate.Limiter)
		l.buckets.SetDefault(key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(key, limiter)
	return limiter
}
