package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		URL:         "redis://" + mr.Addr(),
		PoolSize:    4,
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	}

	client, err := NewRedisClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if client.Options().PoolSize != 4 {
		t.Errorf("Expected pool size 4, got %d", client.Options().PoolSize)
	}
}

func TestNewRedisClientErrors(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), config.RedisConfig{URL: "not a url"}); err == nil {
		t.Error("Expected error for malformed URL")
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.RedisConfig{URL: "redis://" + addr, DialTimeout: 100 * time.Millisecond}
	if _, err := NewRedisClient(context.Background(), cfg); err == nil {
		t.Error("Expected error when server is down")
	}
}
