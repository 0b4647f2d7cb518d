package guard

import (
	"fmt"
	"sync"
	"time"
)

// Result is a rate-limit decision.
type Result struct {
	Allowed bool
	Reason  string
}

// RateLimiter is a sliding-window rate limiter keyed by caller. It throttles
// bet placement and counter-offer spam per user; a zero limit disables it.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit calls per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Check records an attempt for key and reports whether it is within the limit.
func (rl *RateLimiter) Check(key string) Result {
	if rl == nil || rl.limit <= 0 {
		return Result{Allowed: true}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return Result{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
		}
	}

	rl.windows[key] = append(valid, now)
	return Result{Allowed: true}
}
