package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket wraps one golang.org/x/time/rate.Limiter per key, refilling
// continuously rather than resetting on window boundaries.
type TokenBucket struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
}

type keyedLimiter struct {
	limiter    *rate.Limiter
	limit      int
	window     time.Duration
	lastSeenAt time.Time
}

func NewTokenBucket() *TokenBucket {
	return &TokenBucket{limiters: make(map[string]*keyedLimiter)}
}

func (tb *TokenBucket) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	kl, ok := tb.limiters[key]
	if !ok || kl.limit != limit || kl.window != window {
		ratePerSec := rate.Limit(float64(limit) / window.Seconds())
		kl = &keyedLimiter{limiter: rate.NewLimiter(ratePerSec, limit), limit: limit, window: window}
		tb.limiters[key] = kl
	}
	kl.lastSeenAt = now

	reservation := kl.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return Decision{Allowed: false, ResetAt: now.Add(window)}, nil
	}
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.Cancel()
		return Decision{Allowed: false, RetryAfter: delay, ResetAt: now.Add(delay)}, nil
	}

	remaining := int(kl.limiter.TokensAt(now))
	return Decision{Allowed: true, Remaining: remaining, ResetAt: now.Add(window)}, nil
}
