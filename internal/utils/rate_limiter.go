// internal/utils/rate_limiter.go
package utils

import (
	"golang.org/x/time/rate"
)

// RateLimiter wraps the golang.org/x/time/rate token bucket. A rate of zero
// or less disables limiting.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerSecond on average
// with bursts of up to burst requests.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit, burst := limitOf(requestsPerSecond, burst)
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Allow reports whether a request may happen now
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Update changes the rate and burst in place
func (rl *RateLimiter) Update(requestsPerSecond float64, burst int) {
	limit, burst := limitOf(requestsPerSecond, burst)
	rl.limiter.SetBurst(burst)
	rl.limiter.SetLimit(limit)
}

func limitOf(requestsPerSecond float64, burst int) (rate.Limit, int) {
	if requestsPerSecond <= 0 {
		return rate.Inf, 0
	}
	if burst < 1 {
		burst = 1
	}
	return rate.Limit(requestsPerSecond), burst
}
