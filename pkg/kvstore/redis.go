package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "communitywealth:"

type redisStore struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) Get(ctx context.Context, key string, dest any) error {
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}
	return decode(key, raw, dest)
}

func (s *redisStore) Set(ctx context.Context, key string, value any) error {
	return s.SetMany(ctx, map[string]any{key: value})
}

func (s *redisStore) SetMany(ctx context.Context, values map[string]any) error {
	entries, err := encodeAll(values)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, s.prefix+e.key, e.value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kvstore: redis set: %w", err)
	}
	return nil
}
