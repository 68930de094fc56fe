package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumine/darshan-bookings/internal/http/response"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter throttles abusive clients with fixed windows kept in
// Redis.
type RateLimiter struct {
	rdb    *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow counts the request against a fixed window. Redis failures fail
// open; throttling is protection, not a correctness gate.
func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key for privacy
	hasher := sha256.New()
	hasher.Write([]byte(key))
	redisKey := fmt.Sprintf("darshan:ratelimit:%x", hasher.Sum(nil))

	count, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err)
		return true
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, redisKey, rl.config.Window).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to set rate limit window", "error", err)
		}
	}

	return count <= int64(rl.config.Requests)
}

// UserKey builds a per-user rate limit key, falling back to the remote
// address for unauthenticated requests.
func UserKey(prefix string) func(r *http.Request) []string {
	return func(r *http.Request) []string {
		if u := CurrentUser(r); u != nil {
			return []string{fmt.Sprintf("%s:user:%d", prefix, u.ID)}
		}
		return []string{fmt.Sprintf("%s:addr:%s", prefix, r.RemoteAddr)}
	}
}
