package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocalStore is the device-local side of cart persistence: fast, always
// written, survives reloads. Keys are session scoped for anonymous actors
// and user scoped once authenticated.
type LocalStore interface {
	Load(ctx context.Context, key string) (Items, bool, error)
	Save(ctx context.Context, key string, items Items) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps local cart copies in Redis as JSON blobs with a rolling TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a LocalStore backed by Redis.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string { return "cart:" + key }

func (s *RedisStore) Load(ctx context.Context, key string) (Items, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var items Items
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// a corrupt blob behaves like an absent cart
		return nil, false, nil
	}
	return items, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, items Items) error {
	if len(items) == 0 {
		return s.Delete(ctx, key)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
