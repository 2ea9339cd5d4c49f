package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenBucket_Allow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)
	defer tb.Close()
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		info, err := tb.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, info.Allowed)
		assert.Equal(t, i, info.Remaining)
		assert.Equal(t, 3, info.Limit)
	}

	info, err := tb.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, info.Allowed)

	// other keys have their own bucket
	info, err = tb.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(2, 50*time.Millisecond)
	defer tb.Close()
	ctx := context.Background()

	tb.Allow(ctx, "a")
	tb.Allow(ctx, "a")
	info, _ := tb.Allow(ctx, "a")
	require.False(t, info.Allowed)

	time.Sleep(80 * time.Millisecond)
	info, _ = tb.Allow(ctx, "a")
	assert.True(t, info.Allowed)
}

func TestTokenBucket_CloseIsIdempotent(t *testing.T) {
	tb := NewTokenBucket(1, time.Second)
	assert.NoError(t, tb.Close())
	assert.NoError(t, tb.Close())
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter, err := NewRedisLimiter(client, 2, time.Minute, "stencil:ratelimit:")
	require.NoError(t, err)
	ctx := context.Background()

	info, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
	assert.Equal(t, 1, info.Remaining)

	info, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)

	info, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, info.Allowed)

	assert.True(t, mr.Exists("stencil:ratelimit:10.0.0.1"))
}

func TestNewRedisLimiter_InvalidConfig(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	_, err := NewRedisLimiter(nil, 1, time.Minute, "")
	assert.EqualError(t, err, "redis client is required")
	_, err = NewRedisLimiter(client, 0, time.Minute, "")
	assert.EqualError(t, err, "limit must be greater than 0")
	_, err = NewRedisLimiter(client, 1, time.Millisecond, "")
	assert.EqualError(t, err, "window must be at least one second")
}

func TestRateLimit_ThroughServer(t *testing.T) {
	config := DefaultConfig()
	limiter := NewTokenBucket(1, time.Hour)
	defer limiter.Close()
	config.Limiter = limiter
	_, ts := newTestServer(t, config)

	resp := post(t, ts.URL+"/api/compile", `{"source":"<p></p>"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp = post(t, ts.URL+"/api/compile", `{"source":"<p></p>"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// the health probe is never limited
	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (*LimitInfo, error) {
	return nil, errors.New("backend down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(r))
}
