package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps artifacts as string values under a key prefix, for running
// the pipeline against shared storage.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects a store using redisOpts and namespaces keys with prefix.
func NewRedisStore(redisOpts *redis.Options, prefix string) (*RedisStore, error) {
	if prefix == "" {
		return nil, errors.New("redis key prefix cannot be empty")
	}
	return &RedisStore{rdb: redis.NewClient(redisOpts), prefix: prefix}, nil
}

// Key returns the Redis key holding ref.
func (s *RedisStore) Key(ref Ref) string {
	return s.prefix + ":artifact:" + ref.Path()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Exists(ctx context.Context, ref Ref) (bool, error) {
	if err := validateRef(ref); err != nil {
		return false, err
	}
	n, err := s.rdb.Exists(ctx, s.Key(ref)).Result()
	if err != nil {
		return false, fmt.Errorf("check %s in redis: %w", ref.Path(), err)
	}
	return n > 0, nil
}

func (s *RedisStore) Load(ctx context.Context, ref Ref) ([]byte, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, s.Key(ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, NotFound(ref)
		}
		return nil, fmt.Errorf("read %s from redis: %w", ref.Path(), err)
	}
	return data, nil
}

// Store writes ref with a single SET, which Redis applies atomically.
func (s *RedisStore) Store(ctx context.Context, ref Ref, data []byte) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.Key(ref), data, 0).Err(); err != nil {
		return fmt.Errorf("write %s to redis: %w", ref.Path(), err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, ref Ref) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.Key(ref)).Err(); err != nil {
		return fmt.Errorf("delete %s from redis: %w", ref.Path(), err)
	}
	return nil
}
