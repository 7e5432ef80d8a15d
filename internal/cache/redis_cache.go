package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		// data corrupt: treat as miss by deleting
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

type RedisVersions struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisVersions(rdb *redis.Client) *RedisVersions {
	return &RedisVersions{rdb: rdb, prefix: "agg:ver:"}
}

func (v *RedisVersions) Current(ctx context.Context, subject string) (int64, error) {
	n, err := v.rdb.Get(ctx, v.prefix+subject).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (v *RedisVersions) Bump(ctx context.Context, subject string) (int64, error) {
	return v.rdb.Incr(ctx, v.prefix+subject).Result()
}

type RedisSeen struct {
	rdb *redis.Client
}

func NewRedisSeen(rdb *redis.Client) *RedisSeen {
	return &RedisSeen{rdb: rdb}
}

func (s *RedisSeen) Members(ctx context.Context, key string) (map[string]struct{}, error) {
	ids, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *RedisSeen) Extend(ctx context.Context, from, to string, ids []string, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, to)
	if from != "" {
		pipe.SUnionStore(ctx, to, from)
	}
	if len(ids) > 0 {
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, to, members...)
	}
	pipe.Expire(ctx, to, ttl)
	_, err := pipe.Exec(ctx)
	return err
}
