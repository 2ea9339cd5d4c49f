package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (*LimitInfo, error)
}

// LimitInfo is the state of one client's limit after a request
type LimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Allowed   bool
}

// TokenBucket is an in-memory per-key token bucket. Each bucket holds
// capacity tokens and refills capacity tokens per period.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	period   time.Duration
	cleanup  *time.Ticker
	done     chan struct{}
	once     sync.Once
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a limiter allowing capacity requests per period.
// Buckets idle for two periods are dropped.
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		period:   period,
		cleanup:  time.NewTicker(2 * period),
		done:     make(chan struct{}),
	}
	go tb.cleanupLoop()
	return tb
}

// Allow takes a token from key's bucket
func (tb *TokenBucket) Allow(_ context.Context, key string) (*LimitInfo, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, lastRefill: now}
		tb.buckets[key] = b
	}

	// refill proportionally to the time since the last refill
	if add := int(float64(tb.capacity) * now.Sub(b.lastRefill).Seconds() / tb.period.Seconds()); add > 0 {
		b.tokens = min(tb.capacity, b.tokens+add)
		b.lastRefill = now
	}

	info := &LimitInfo{Limit: tb.capacity, ResetAt: b.lastRefill.Add(tb.period)}
	if b.tokens > 0 {
		b.tokens--
		info.Allowed = true
	}
	info.Remaining = b.tokens
	return info, nil
}

func (tb *TokenBucket) cleanupLoop() {
	for {
		select {
		case <-tb.cleanup.C:
			tb.mu.Lock()
			now := time.Now()
			for key, b := range tb.buckets {
				if now.Sub(b.lastRefill) > 2*tb.period {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		case <-tb.done:
			return
		}
	}
}

// Close stops the cleanup goroutine
func (tb *TokenBucket) Close() error {
	tb.once.Do(func() {
		tb.cleanup.Stop()
		close(tb.done)
	})
	return nil
}

// slidingWindow keeps one sorted-set member per request inside the window
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, window)
		return {1, current + 1}
	end
	return {0, current}
`)

// RedisLimiter is a sliding-window limiter shared by every server using
// the same Redis
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter allowing limit requests per window
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if window < time.Second {
		return nil, errors.New("window must be at least one second")
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}, nil
}

// Allow records a request for key unless the window is full
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*LimitInfo, error) {
	now := time.Now()
	result, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixNano(),
		now.Add(-r.window).UnixNano(),
		r.limit,
		int(r.window.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	if len(result) != 2 {
		return nil, errors.New("unexpected redis script result")
	}

	return &LimitInfo{
		Limit:     r.limit,
		Remaining: max(0, r.limit-int(result[1])),
		ResetAt:   now.Add(r.window),
		Allowed:   result[0] == 1,
	}, nil
}

// RateLimit rejects clients over their limit with 429. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn("rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !info.Allowed {
				retryAfter := max(0, int64(time.Until(info.ResetAt).Seconds()))
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then
// the connection's address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
