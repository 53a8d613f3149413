package ratelimit

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"iconforge/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Limiter answers whether one more request is allowed under the key's window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a fixed-window limiter: INCR per key, EXPIRE on the
// first hit of a window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{client: client, limit: limit, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}

// Middleware gates a route per authenticated user. Redis being down fails
// open: generation availability should not hinge on the limiter backend.
func Middleware(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := common.GetUserIDFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			allowed, err := limiter.Allow(c.Request().Context(), userID)
			if err != nil {
				log.Printf("rate limiter unavailable: %v", err)
				return next(c)
			}
			if !allowed {
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse(
					"RATE_LIMITED", "Too many generation requests, slow down", nil))
			}
			return next(c)
		}
	}
}
