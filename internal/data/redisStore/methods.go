package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

// ListAppend pushes values, keeps only the newest maxLen entries and
// refreshes the ttl, all in one transaction.
func (s *Store) ListAppend(ctx context.Context, key string, maxLen int64, ttl time.Duration, values ...interface{}) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if maxLen > 0 {
			pipe.LTrim(ctx, key, -maxLen, -1)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

// ListTail returns the last n entries, oldest first. n <= 0 returns all.
func (s *Store) ListTail(ctx context.Context, key string, n int64) ([]string, error) {
	start := int64(0)
	if n > 0 {
		start = -n
	}
	return s.client.LRange(ctx, key, start, -1).Result()
}

func (s *Store) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...interface{}) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, members...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *Store) SetRemove(ctx context.Context, key string, members ...interface{}) error {
	return s.client.SRem(ctx, key, members...).Err()
}

func (s *Store) Expire(ctx context.Context, ttl time.Duration, keys ...string) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Expire(ctx, k, ttl)
		}
		return nil
	})
	return err
}
