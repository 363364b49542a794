package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bee-social/internal/models"
)

// RedisCache stores users as JSON under "<prefix><id>".
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, prefix: "identity:user:"}
}

// cachedUser keeps fields that models.User hides from JSON.
type cachedUser struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Email       string    `json:"email"`
	SyncedAt    time.Time `json:"synced_at"`
}

func (c *RedisCache) Get(ctx context.Context, id string) (models.User, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		return models.User{}, false, err
	}
	return models.User(cu), true, nil
}

func (c *RedisCache) Set(ctx context.Context, u models.User, ttl time.Duration) error {
	raw, err := json.Marshal(cachedUser(u))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+u.ID, raw, ttl).Err()
}
