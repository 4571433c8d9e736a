package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultIdleTimeout     = 10 * time.Minute
)

// RateLimiter limits requests per client with a token bucket per client id
type RateLimiter struct {
	limiters sync.Map
	rate     int
	burst    int
	logger   *zap.Logger

	cleanupInterval time.Duration
	idleTimeout     time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

type limiterEntry struct {
	limiter *rate.Limiter

	mu         sync.Mutex
	lastAccess time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given
// burst. Stop releases its cleanup goroutine.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:            requestsPerSecond,
		burst:           burst,
		logger:          logger.ForComponent(logger.ComponentMiddleware),
		cleanupInterval: defaultCleanupInterval,
		idleTimeout:     defaultIdleTimeout,
		stop:            make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				entry := value.(*limiterEntry)
				entry.mu.Lock()
				idle := now.Sub(entry.lastAccess) > rl.idleTimeout
				entry.mu.Unlock()
				if idle {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()
	if val, ok := rl.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(rl.rate), rl.burst),
		lastAccess: now,
	}
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// clientIdentifier keys the limiter by origin when the caller names one,
// otherwise by client ip
func clientIdentifier(c *gin.Context) string {
	if origin := c.GetHeader(OriginHeader); origin != "" {
		return "origin:" + origin
	}
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = "unknown"
	}
	return "ip:" + clientIP
}

// Middleware returns the gin handler enforcing the limit. Health checks are
// never limited.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		clientID := clientIdentifier(c)
		limiter := rl.getLimiter(clientID)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.rate))
		if !limiter.Allow() {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client_id", clientID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("correlation_id", GetCorrelationID(c)))

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": 1,
			})
			return
		}

		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}
