package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
)

// Limiter decides whether the caller identified by key may make one more
// request within the configured window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit enforces a per-API-key token bucket, per spec.md's "100 req /
// 60 s" rate limiting rule.
type RateLimit struct {
	logger  *zap.Logger
	limiter Limiter
	limit   int
}

// NewRateLimit builds the rate limit middleware around the given backend.
func NewRateLimit(logger *zap.Logger, limiter Limiter, limit int) *RateLimit {
	return &RateLimit{logger: logger, limiter: limiter, limit: limit}
}

// Middleware returns the gin handler. It keys on the API key stashed by the
// auth middleware, falling back to client IP when no API key was stashed
// (the public server mounts it only on /api/v1, after Auth; /health is not
// rate limited).
func (m *RateLimit) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := APIKey(c)
		if key == "" {
			key = c.ClientIP()
		}

		allowed, err := m.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			m.logger.Error("rate limiter backend error", zap.Error(err))
			allowed = true // fail open: availability over strict enforcement
		}
		if !allowed {
			err := apperror.RateLimited("60s")
			err.Details = map[string]interface{}{"limit": m.limit, "window": "60s"}
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

// MemoryLimiter is an in-process bucket per key holding limit tokens,
// refilled to limit in one step once a full window has passed since the
// last refill. It's the fallback backend when no Redis
// address is configured, so a single replica still enforces the bucket.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewMemoryLimiter builds an in-process limiter allowing limit requests per
// window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, buckets: make(map[string]*bucket)}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.limit, lastRefill: time.Now()}
		l.buckets[key] = b
	}

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed >= l.window {
		b.tokens = l.limit
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RedisLimiter enforces a fixed-window counter in Redis, so the bucket is
// shared across every replica behind the same address.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow implements Limiter using INCR plus an EXPIRE issued only when the
// counter is 1, so the first request in a window sets the TTL and every
// subsequent one just increments.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("zeroid:ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: redis expire: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}
