package openaicompat

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxConcurrent is the default maximum of in-flight completion requests
	DefaultMaxConcurrent = 5
	// DefaultMinDelay is the minimum spacing between request starts
	DefaultMinDelay = 100 * time.Millisecond
)

// RateLimiter bounds concurrent completion requests and spaces their start times.
// One limiter is shared by every model that talks to the same provider.
type RateLimiter struct {
	semaphore chan struct{}
	pacer     *rate.Limiter
}

// NewRateLimiter creates a limiter. A zero minDelay disables pacing.
func NewRateLimiter(maxConcurrent int, minDelay time.Duration) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}

	zap.L().Named("RateLimiter").Debug("initialized",
		zap.Int("max_concurrent", maxConcurrent), zap.Duration("min_delay", minDelay))

	return &RateLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		pacer:     rate.NewLimiter(limit, 1),
	}
}

// Acquire blocks until a slot is free and the pacing interval has passed.
// The returned release func MUST be called when the request is complete.
func (r *RateLimiter) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case r.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := r.pacer.Wait(ctx); err != nil {
		<-r.semaphore
		return nil, err
	}

	return func() { <-r.semaphore }, nil
}
