// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per user so a single client hammering
// the question source cannot starve everyone else.
type RateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	every time.Duration
	burst int
}

// NewRateLimiter creates a rate limiter allowing one request per `every`
// with the given burst per key.
func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	if every <= 0 {
		every = time.Second / 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		every:  every,
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(rl.every), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// PerUserRateLimit is an echo middleware limiting requests per user path
// parameter. Requests without a user parameter share one anonymous bucket.
func PerUserRateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Param("user")
			if key == "" {
				key = "anonymous"
			}
			if !rl.Allow(key) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
