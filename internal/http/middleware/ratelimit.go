// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the request throttle: an in-process token-bucket limiter
// with one bucket per caller identity. Buckets appear on first use and idle
// ones are swept out during lookups, so memory stays bounded without a
// background goroutine.
//
// The limiter is process-local. A horizontally scaled deployment that needs a
// global ceiling should put a shared limiter (Redis or similar) in front
// instead.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity that owns its token bucket. The
// returned string must be stable for the lifetime of the request.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user when one is present
// (the "userID" context value set by Auth) and by client IP otherwise. Keys
// carry a namespace prefix so a user id can never collide with an address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last activity time for idle eviction.
type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter hands out tokens per identity. Safe for concurrent use; the
// bucket map is guarded by a mutex and swept during lookups.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket

	idleTTL time.Duration
	lookups uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst capacity. A burst below 1 is coerced to 1 so a zero-valued
// config cannot produce a limiter that rejects everything.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// sweepThreshold is how many lookups pass between idle-bucket sweeps.
const sweepThreshold = 5000

// bucketFor returns the limiter owning key, creating it on first sight.
// The sweep runs before the requested bucket is touched so a stale bucket is
// evicted even when it is the one being looked up.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.lookups++
	if rl.lookups >= sweepThreshold {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.seen = now
		lim := b.lim
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{lim: lim, seen: now}
	rl.mu.Unlock()
	return lim
}

// Handler enforces the per-identity limit. Rejected requests receive a 429
// with a one-second Retry-After and the request id for correlation.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.bucketFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
