package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a fixed minimum spacing between outbound requests.
// The first request passes immediately; each following one waits until
// delay has elapsed since the previous one. A zero delay disables it.
type RateLimiter struct {
	delay   time.Duration
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for the given delay.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	l := &RateLimiter{delay: delay}
	if delay > 0 {
		l.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return l
}

// Wait blocks until the next request may be sent.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Delay returns the configured spacing.
func (l *RateLimiter) Delay() time.Duration {
	if l == nil {
		return 0
	}
	return l.delay
}
