package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/cache"
)

// Revoker remembers signed-out token ids until the tokens would have expired.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type MemoryRevoker struct {
	ids *cache.Cache[string, struct{}]
	now func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		ids: cache.NewCache[string, struct{}](),
		now: time.Now,
	}
}

func (m *MemoryRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	ttl := until.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	m.ids.SetWithTTL(id, struct{}{}, ttl)
	m.ids.Prune()
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.ids.Get(id)
	return ok, nil
}

const revokedPrefix = "auth:revoked:"

type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedPrefix+id, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "error storing revoked token")
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "error reading revoked token")
	}
	return n > 0, nil
}
