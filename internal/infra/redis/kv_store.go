package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// KVStore backs the persistence collaborator with Redis. Keys are namespaced
// and unset keys read as empty; callers treat errors as "store unavailable"
// and degrade.
type KVStore struct {
	client *redis.Client
	prefix string
}

func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client, prefix: "kv:"}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}
