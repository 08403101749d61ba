package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is the fixed counting window per IP.
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of requests allowed in one window.
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for request counters.
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs.
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit.
	BlockedIPDuration = 15 * time.Minute
)

// RateLimiter counts requests per client IP in Redis so the limit holds
// across every instance behind the load balancer.
type RateLimiter struct {
	client  *redis.Client
	window  time.Duration
	max     int64
	blockOn time.Duration
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client:  client,
		window:  RateLimitWindow,
		max:     RateLimitMaxRequests,
		blockOn: BlockedIPDuration,
	}
}

// WithLimit overrides the window and request budget.
func (l *RateLimiter) WithLimit(window time.Duration, max int64) *RateLimiter {
	l.window = window
	l.max = max
	return l
}

// Handler rejects clients over the limit with 429. Redis failures let the
// request through.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		ctx := r.Context()

		blocked, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
		if err == nil && blocked > 0 {
			writeJSONError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		count, err := l.hit(ctx, ip)
		if err != nil {
			logging.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.blockOn).Err(); err != nil {
				logging.FromContext(ctx).Warn("failed to block ip", "ip", ip, "error", err)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockOn.Seconds())))
			writeJSONError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", int(l.blockOn.Seconds())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.max-count, 10))
		next.ServeHTTP(w, r)
	})
}

// hit increments the counter for ip, starting its window on the first request.
func (l *RateLimiter) hit(ctx context.Context, ip string) (int64, error) {
	key := RateLimitKeyPrefix + ip
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// Unblock removes ip from the blocked list.
func (l *RateLimiter) Unblock(ctx context.Context, ip string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}

// IsBlocked reports whether ip is currently blocked.
func (l *RateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}
