package security

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"travel-agency/monitoring"
)

type RateLimiter struct {
	redis    redis.Cmdable
	identify func(e *core.RequestEvent) string
}

func NewRateLimiter(redisClient redis.Cmdable) *RateLimiter {
	return &RateLimiter{
		redis:    redisClient,
		identify: (*core.RequestEvent).RealIP,
	}
}

// Allow counts one hit for id in a fixed window and reports whether the
// caller is still within limit.
func (r *RateLimiter) Allow(ctx context.Context, scope, id string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", scope, id)

	// ExpireNX in the same transaction gives every counter a TTL, even when
	// an earlier expire was lost.
	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return true, err
	}
	return incr.Val() <= int64(limit), nil
}

// Limit returns a middleware allowing limit requests per client IP and window.
// Redis failures let the request through.
func (r *RateLimiter) Limit(scope string, limit int, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		allowed, err := r.Allow(e.Request.Context(), scope, r.identify(e), limit, window)
		if err != nil {
			slog.Warn("Rate limiter unavailable", "scope", scope, "error", err)
			return e.Next()
		}
		if !allowed {
			monitoring.TrackRateLimited(scope)
			e.Response.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			return apis.NewTooManyRequestsError("Too many requests. Please try again later.", nil)
		}
		return e.Next()
	}
}

// BlockBots rejects form posts from self-declared crawlers.
func BlockBots() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.UserAgent()) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
