package handlers

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	rateLimitEnabled bool
	clientRate       rate.Limit = 10
	clientBurst                 = 20

	clientLimiters = make(map[string]*clientLimiter)
	limitersMu     sync.Mutex
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InitRateLimiter reads rate limiting configuration from the environment.
// Limits are enforced per client IP.
func InitRateLimiter() {
	rateLimitEnabled = os.Getenv("ENABLE_RATE_LIMIT") == "true"

	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			clientRate = rate.Limit(n)
			clientBurst = n * 2
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			clientBurst = n
		}
	}

	if rateLimitEnabled {
		go cleanupClientLimiters()
	}
}

func limiterFor(clientIP string) *rate.Limiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	entry, ok := clientLimiters[clientIP]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(clientRate, clientBurst)}
		clientLimiters[clientIP] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Limiters for clients idle longer than the retention window are dropped
// to keep the map from growing without bound.
func cleanupClientLimiters() {
	const retention = 10 * time.Minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-retention)
		limitersMu.Lock()
		for ip, entry := range clientLimiters {
			if entry.lastSeen.Before(cutoff) {
				delete(clientLimiters, ip)
			}
		}
		limitersMu.Unlock()
	}
}

// RateLimitMiddleware rejects requests exceeding the per-client rate with
// 429. A no-op when rate limiting is disabled.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimitEnabled {
			c.Next()
			return
		}

		if !limiterFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
