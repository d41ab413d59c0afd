package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Requests: 3, Window: time.Hour, Cleanup: time.Hour})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")

	rl.reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Requests: 3, Window: time.Hour, Cleanup: time.Hour})
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	rl.reset("10.0.0.1")

	rl.cleanup()

	_, ok := rl.limits.Load("10.0.0.1")
	assert.False(t, ok)
	_, ok = rl.limits.Load("10.0.0.2")
	assert.True(t, ok)
}

func TestRateLimiterRunStops(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Hour, Cleanup: time.Millisecond})
	rl.Allow("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- rl.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "192.0.2.1", clientIP(r))
}
