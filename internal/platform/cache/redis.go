package cache

import (
	"context"
	"time"

	platformredis "fedevents/internal/platform/redis"
)

// Redis is a Cache shared across processes, backed by the platform Redis
// client. Failures degrade to cache misses; the cache is never load-bearing.
type Redis struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedis(client *platformredis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	_ = r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_ = r.client.Del(ctx, keys...).Err()
}
