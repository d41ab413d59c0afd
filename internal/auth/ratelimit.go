package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/respond"
)

// RateLimiter allows limit requests per client IP in each window.
type RateLimiter struct {
	limits     sync.Map
	limit      int32
	window     time.Duration
	cleanupInt time.Duration
}

type clientData struct {
	requests int32
	timer    *time.Timer
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limit:      int32(cfg.Requests),
		window:     cfg.Window,
		cleanupInt: cfg.Cleanup,
	}
}

// Run drops idle clients every cleanup interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.cleanupInt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rl.limits.Range(func(key, value interface{}) bool {
				value.(*clientData).timer.Stop()
				rl.limits.Delete(key)
				return true
			})
			return nil
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.limits.Range(func(key, value interface{}) bool {
		data := value.(*clientData)
		if atomic.LoadInt32(&data.requests) == 0 {
			data.timer.Stop()
			rl.limits.Delete(key)
		}
		return true
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// Allow counts a request from ip and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ip string) bool {
	data, loaded := rl.limits.Load(ip)
	if !loaded {
		fresh := &clientData{timer: time.AfterFunc(rl.window, func() { rl.reset(ip) })}
		data, loaded = rl.limits.LoadOrStore(ip, fresh)
		if loaded {
			fresh.timer.Stop()
		}
	}
	return atomic.AddInt32(&data.(*clientData).requests, 1) <= rl.limit
}

func (rl *RateLimiter) reset(ip string) {
	data, ok := rl.limits.Load(ip)
	if !ok {
		return
	}
	client := data.(*clientData)
	atomic.StoreInt32(&client.requests, 0)
	client.timer.Reset(rl.window)
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			respond.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{Error: config.ErrTooManyRequests})
			return
		}
		next.ServeHTTP(w, r)
	})
}
