// Package services - Search endpoint rate limiter
package services

import (
	"context"

	"golang.org/x/time/rate"
)

// SearchRateLimiter implements token bucket rate limiting for the port
// search endpoints, which fan out to the port store
type SearchRateLimiter struct {
	limiter *rate.Limiter
}

// NewSearchRateLimiter creates a limiter allowing perSecond sustained
// requests with the given burst capacity
func NewSearchRateLimiter(perSecond float64, burst int) *SearchRateLimiter {
	if perSecond <= 0 {
		perSecond = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &SearchRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Wait blocks until a token is available or the context expires
func (l *SearchRateLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow checks if a request can proceed without blocking
func (l *SearchRateLimiter) Allow() bool {
	return l.limiter.Allow()
}
