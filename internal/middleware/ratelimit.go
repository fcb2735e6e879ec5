package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"bitsbarter/internal/observability"
)

// Counter tracks request counts per key within a fixed window. A shared
// backing store keeps the limit correct across multiple instances.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a Counter backed by a shared expiring key-value store.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter constructs a RedisCounter.
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr bumps the window counter and sets its expiry on first use.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter bounds request rate per actor or IP. With a Counter it uses
// fixed windows against the shared store; without one it falls back to
// per-key in-memory token buckets, which are best-effort only in
// multi-instance deployments.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// key. counter may be nil for the in-memory fallback.
func NewRateLimiter(counter Counter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the key is within its budget.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl.counter != nil {
		bucket := time.Now().Unix() / int64(rl.window.Seconds())
		count, err := rl.counter.Incr(ctx, fmt.Sprintf("ratelimit:%s:%d", key, bucket), rl.window)
		if err != nil {
			return false, err
		}
		return count <= int64(rl.limit), nil
	}
	return rl.memoryLimiter(key).Allow(), nil
}

func (rl *RateLimiter) memoryLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(rl.limit)/rl.window.Seconds()), rl.limit)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Middleware enforces the limit, keyed by the authenticated user when
// present and by client IP otherwise. Counter failures let the request
// through: the limiter is best-effort, never an outage amplifier.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			key = observability.IPFromRequest(c.Request)
		}

		allowed, err := rl.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable")
			c.Next()
			return
		}
		if !allowed {
			observability.IncRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
