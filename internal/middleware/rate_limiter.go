package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// RateLimiter enforces a per-client-IP request rate with token buckets.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	clients map[string]*clientLimit
	mutex   sync.Mutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per minute per IP with bursts of
// the same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Inf,
		burst:   perMinute,
		idle:    10 * time.Minute,
		clients: make(map[string]*clientLimit),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	// Drop idle clients so the map does not grow without bound
	go rl.cleanupRoutine()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// RateLimit is a middleware that rejects requests over the limit with 429.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit == rate.Inf {
			c.Next()
			return
		}

		ip := c.ClientIP()
		reservation := rl.reserve(ip)
		if delay := reservation.DelayFrom(rl.now()); delay > 0 {
			reservation.CancelAt(rl.now())
			retryAfter := int(math.Ceil(delay.Seconds()))
			logging.WarnWithComponent(logging.ComponentRateLimit, "Rate limit exceeded", "ip", ip, "path", c.FullPath())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"details":     fmt.Sprintf("Try again in %d seconds", retryAfter),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) reserve(ip string) *rate.Reservation {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimit{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.ReserveN(now, 1)
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// RequestSizeLimit rejects bodies larger than maxBytes with 413. Declared
// lengths are checked up front; the body is also capped while it is read.
func RequestSizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			logging.Warn("Request too large", "size", c.Request.ContentLength, "limit", maxBytes, "ip", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request payload too large",
				"details":   fmt.Sprintf("Maximum request size is %dMB", maxBytes>>20),
				"max_bytes": maxBytes,
			})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
