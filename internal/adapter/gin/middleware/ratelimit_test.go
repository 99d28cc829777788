package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"library-service/internal/config"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func setupLimitedRouter(t *testing.T, client *redis.Client, cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(client, cfg, zaptest.NewLogger(t)))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	router := setupLimitedRouter(t, client, config.RateLimitConfig{
		RequestsPerSecond: 10,
		BurstCapacity:     10,
		Enabled:           true,
	})

	for i := 0; i < 5; i++ {
		w := doGet(router, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.SetTime(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)) // freeze refill
	router := setupLimitedRouter(t, client, config.RateLimitConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     3,
		Enabled:           true,
	})

	// Drain the bucket
	for i := 0; i < 3; i++ {
		w := doGet(router, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := doGet(router, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	router := setupLimitedRouter(t, client, config.RateLimitConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     1,
		Enabled:           false,
	})

	for i := 0; i < 10; i++ {
		w := doGet(router, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_RedisDown_FailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	router := setupLimitedRouter(t, client, config.RateLimitConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     1,
		Enabled:           true,
	})

	mr.Close()

	// An unreachable limiter must not take the site down with it
	w := doGet(router, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_BucketsPerPath(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.SetTime(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(client, config.RateLimitConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t)))
	router.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") })
	router.GET("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") })

	assert.Equal(t, http.StatusOK, doGet(router, "/a").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(router, "/a").Code)

	// A different path has its own bucket
	assert.Equal(t, http.StatusOK, doGet(router, "/b").Code)
}
