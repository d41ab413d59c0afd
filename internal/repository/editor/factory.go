package editor

import (
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

// New builds the store named by cfg.DraftStore. client may be nil unless the store is redis.
func New(cfg config.EditorConfig, client *redis.Client) (Repository, error) {
	switch cfg.DraftStore {
	case "memory":
		return NewMemoryRepository(), nil
	case "file", "":
		return NewFSRepository(cfg.DraftDir)
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("draft store redis requires redis.url")
		}
		return NewRedisRepository(client), nil
	default:
		return nil, fmt.Errorf("unknown draft store %q", cfg.DraftStore)
	}
}
