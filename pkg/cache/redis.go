package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis so that several server instances can
// share computed views and renders.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr, which is either a host:port pair or a
// redis:// URL. Connection failures are retried with backoff.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	opts, err := redisOptions(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", ErrUnavailable, opts.Addr, err)
	}
	return &RedisCache{client: client}, nil
}

func redisOptions(addr string) (*redis.Options, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis: empty address")
	}
	if opts, err := redis.ParseURL(addr); err == nil {
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// Get returns the value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores data with Redis-side expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the client's connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
