// Package ratelimit implements the token-bucket limiter spec.md §4.10
// requires for invite-code preview ("token bucket, default 10/min burst
// 20"), grounded in Sergey-Bar-Alfred's gateway rate limiter
// (services/gateway/middleware/ratelimit.go): an in-process, mutex-guarded
// per-key window, logged via zerolog, with the same "clean expired tokens
// then count" shape, generalized from a sliding window to a token bucket
// with an explicit burst capacity.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter is a per-key token bucket: refillPerMinute tokens are added per
// minute, capped at burst.
type Limiter struct {
	log             zerolog.Logger
	refillPerMinute float64
	burst           float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New builds a Limiter with the given refill rate (tokens/minute) and
// burst capacity.
func New(log zerolog.Logger, refillPerMinute, burst int) *Limiter {
	return &Limiter{
		log:             log,
		refillPerMinute: float64(refillPerMinute),
		burst:           float64(burst),
		buckets:         make(map[string]*bucket),
	}
}

// Allow reports whether a call keyed by key is permitted now, consuming
// one token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastRefill: now}
		l.buckets[key] = b
	}
	elapsedMinutes := now.Sub(b.lastRefill).Minutes()
	if elapsedMinutes > 0 {
		b.tokens = min(l.burst, b.tokens+elapsedMinutes*l.refillPerMinute)
		b.lastRefill = now
	}
	if b.tokens < 1 {
		l.log.Warn().Str("key", redact(key)).Msg("rate limit exceeded")
		return false
	}
	b.tokens--
	return true
}

// Cleanup removes every bucket whose last refill is older than idleAfter,
// bounding memory growth. Call it periodically.
func (l *Limiter) Cleanup(idleAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-idleAfter)
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func redact(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
