package kv

import (
	"context"

	"ticketgate/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists local device state in a Redis instance. Keys carry no
// TTL: cache and queue snapshots must survive until explicitly replaced.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient builds a client from a redis:// URL with pool settings
// suited to a single-device workload.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.Wrap(err, "invalid redis url")
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	return redis.NewClient(opts), nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrKeyNotFound
		}
		return nil, errs.Wrap(err, "failed to read state from redis")
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errs.Wrap(err, "failed to write state to redis")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errs.Wrap(err, "failed to delete state from redis")
	}
	return nil
}
