package editor

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/model"
)

// RedisRepository stores each slot as a JSON string with no expiry.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) SaveDraft(ctx context.Context, owner model.UserID, draft model.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "error encoding draft")
	}
	return errors.Wrap(r.client.Set(ctx, slotKey(owner), data, 0).Err(), "error saving draft")
}

func (r *RedisRepository) GetDraft(ctx context.Context, owner model.UserID) (*model.Draft, error) {
	data, err := r.client.Get(ctx, slotKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, errors.Wrap(err, "error reading draft")
	}

	var draft model.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		draftLogger.Warn().Err(err).Str("owner", string(owner)).Msg("Discarding unreadable draft")
		return nil, ErrDraftNotFound
	}
	return &draft, nil
}

func (r *RedisRepository) DeleteDraft(ctx context.Context, owner model.UserID) error {
	return errors.Wrap(r.client.Del(ctx, slotKey(owner)).Err(), "error deleting draft")
}
