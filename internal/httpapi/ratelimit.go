package httpapi

import (
	"context"
	"net/http"
	"time"

	"soc-platform/pkg/logger"
	"soc-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request is allowed for the key.
type Limiter func(ctx context.Context, key string) (bool, error)

// RedisLimiter applies a fixed window in Redis, so the window holds
// across replicas.
func RedisLimiter(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return func(ctx context.Context, key string) (bool, error) {
		return utils.AllowRequest(ctx, rdb, key, limit, window)
	}
}

// RateLimit enforces a per-client-IP limit. When the limiter itself
// fails the request is allowed: an unavailable Redis must not take the
// API down with it.
func RateLimit(allow Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()
		allowed, err := allow(c.Request.Context(), key)
		if err != nil {
			logger.FromGin(c).Error("rate limiter unavailable, allowing request", "err", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
