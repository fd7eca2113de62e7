// Package ratelimit provides a simple in-memory token-bucket limiter used to
// throttle expensive upload endpoints per client key.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a single token-bucket limiter.
type Bucket struct {
	mu     sync.Mutex
	rate   float64 // tokens added per second
	burst  float64 // maximum token capacity
	tokens float64
	last   time.Time

	now func() time.Time // overridable in tests
}

// NewBucket creates a Bucket allowing ratePerSecond requests/s with a burst
// capacity. If burst <= 0, it defaults to ratePerSecond.
func NewBucket(ratePerSecond, burst float64) *Bucket {
	if burst <= 0 {
		burst = ratePerSecond
	}
	b := &Bucket{
		rate:  ratePerSecond,
		burst: burst,
		now:   time.Now,
	}
	b.tokens = burst
	b.last = b.now()
	return b
}

// Allow consumes one token and reports whether the request is permitted.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.last = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// PerKey maintains an independent Bucket per client key. All buckets share
// the same rate and burst.
type PerKey struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	rate    float64
	burst   float64
}

// NewPerKey creates an empty keyed limiter.
func NewPerKey(ratePerSecond, burst float64) *PerKey {
	return &PerKey{
		buckets: make(map[string]*Bucket),
		rate:    ratePerSecond,
		burst:   burst,
	}
}

// Allow checks the bucket for key, creating it on first use.
func (p *PerKey) Allow(key string) bool {
	p.mu.RLock()
	b, ok := p.buckets[key]
	p.mu.RUnlock()
	if ok {
		return b.Allow()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok = p.buckets[key]; ok {
		return b.Allow()
	}
	b = NewBucket(p.rate, p.burst)
	p.buckets[key] = b
	return b.Allow()
}
