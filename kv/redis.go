package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const compareAndSwapScript = `
local cur = redis.call("GET", KEYS[1])
if ARGV[1] == "1" then
  if not cur or cur ~= ARGV[2] then
    return 0
  end
elseif cur then
  return 0
end
redis.call("SET", KEYS[1], ARGV[3])
return 1
`

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

// RedisStore keeps values under "<prefix>:<key>" in Redis.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore]. An empty prefix stores keys unmodified.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, key, prev string, prevOK bool, next string) (bool, error) {
	flag := "0"
	if prevOK {
		flag = "1"
	}
	n, err := compareAndSwapLua.Run(ctx, s.redis, []string{s.key(key)}, flag, prev, next).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}
