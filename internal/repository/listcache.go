package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/cache"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

// ListCache holds post summary lists keyed by owner. Misses and backend errors
// both fall through to the database.
type ListCache interface {
	Get(ctx context.Context, key string) ([]model.PostSummary, bool)
	Set(ctx context.Context, key string, posts []model.PostSummary)
	Invalidate(ctx context.Context, owner model.UserID)
}

func ownerListKey(owner model.UserID) string {
	return "posts:owner:" + string(owner)
}

func publishedListKey(owner model.UserID) string {
	return "posts:published:" + string(owner)
}

type MemoryListCache struct {
	items *cache.Cache[string, []model.PostSummary]
	ttl   time.Duration
}

func NewMemoryListCache(ttl time.Duration) *MemoryListCache {
	return &MemoryListCache{
		items: cache.NewCache[string, []model.PostSummary](),
		ttl:   ttl,
	}
}

func (c *MemoryListCache) Get(_ context.Context, key string) ([]model.PostSummary, bool) {
	return c.items.Get(key)
}

func (c *MemoryListCache) Set(_ context.Context, key string, posts []model.PostSummary) {
	c.items.SetWithTTL(key, posts, c.ttl)
}

func (c *MemoryListCache) Invalidate(_ context.Context, owner model.UserID) {
	c.items.Delete(ownerListKey(owner))
	c.items.Delete(publishedListKey(owner))
}

type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

func (c *RedisListCache) Get(ctx context.Context, key string) ([]model.PostSummary, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			repoLogger.Warn().Err(err).Str("key", key).Msg("Error reading post list from Redis")
		}
		return nil, false
	}

	var posts []model.PostSummary
	if err := json.Unmarshal(data, &posts); err != nil {
		repoLogger.Warn().Err(err).Str("key", key).Msg("Discarding malformed cached post list")
		return nil, false
	}
	return posts, true
}

func (c *RedisListCache) Set(ctx context.Context, key string, posts []model.PostSummary) {
	data, err := json.Marshal(posts)
	if err != nil {
		repoLogger.Warn().Err(err).Msg("Error encoding post list")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		repoLogger.Warn().Err(err).Str("key", key).Msg("Error caching post list in Redis")
	}
}

func (c *RedisListCache) Invalidate(ctx context.Context, owner model.UserID) {
	if err := c.client.Del(ctx, ownerListKey(owner), publishedListKey(owner)).Err(); err != nil {
		repoLogger.Warn().Err(err).Str("owner", string(owner)).Msg("Error invalidating cached post lists")
	}
}
