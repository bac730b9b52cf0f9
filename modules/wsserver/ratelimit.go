package wsserver

import (
	"sync"
	"time"
)

// RateLimitConfig bounds how many chat events one connection may send.
type RateLimitConfig struct {
	Burst     int // bucket capacity
	PerSecond int // refill rate, tokens per second
}

// rateLimiter is a per-connection token bucket. Tokens accrue one per
// tokenInterval; the remainder of a partially elapsed interval carries over
// to the next call instead of being rounded away.
type rateLimiter struct {
	mu            sync.Mutex
	tokens        int
	maxTokens     int
	tokenInterval time.Duration
	lastRefill    time.Time
	now           func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 1
	}
	return &rateLimiter{
		tokens:        cfg.Burst,
		maxTokens:     cfg.Burst,
		tokenInterval: time.Second / time.Duration(cfg.PerSecond),
		lastRefill:    time.Now(),
		now:           time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	refill := int(now.Sub(r.lastRefill) / r.tokenInterval)
	if refill > 0 {
		r.tokens += refill
		if r.tokens >= r.maxTokens {
			r.tokens = r.maxTokens
			r.lastRefill = now
		} else {
			// Keep the unconsumed remainder of the current interval.
			r.lastRefill = r.lastRefill.Add(time.Duration(refill) * r.tokenInterval)
		}
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}
