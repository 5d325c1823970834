package security

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// RateLimiter is a thread-safe token bucket limiter keyed by caller.
// Unconfigured keys are always allowed; default-deny would break consumers
// that never opted into a policy.
type RateLimiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func NewRateLimiter() *RateLimiter { return &RateLimiter{m: make(map[string]*bucket)} }

// Configure registers or resets the bucket for key. The bucket starts full.
func (l *RateLimiter) Configure(key string, capacity, refillPerSec float64) {
	l.mu.Lock()
	l.m[key] = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: time.Now()}
	l.mu.Unlock()
}

// Allow returns true if cost tokens can be consumed for key. Refill is lazy,
// based on elapsed wall-clock time, and capped at capacity.
func (l *RateLimiter) Allow(key string, cost float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		return true
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}
