package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"wsbpanel/pkg/errors"
)

// Limiter paces calls to an upstream API
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a limiter allowing requestsPerSecond with an equal burst
func NewLimiter(name string, requestsPerSecond int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// NewIntervalLimiter creates a limiter that lets one call through, then
// enforces at least `every` between consecutive calls.
// A zero interval disables pacing.
func NewIntervalLimiter(name string, every time.Duration) *Limiter {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
