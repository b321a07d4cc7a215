package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds the initial PING.
const connectTimeout = 5 * time.Second

// RedisCache stores entries in Redis. Expiry is delegated to Redis TTLs.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to the Redis server at url
// (redis://[user:password@]host:port/db) and verifies the connection.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", classifyErr(err))
	}
	return &RedisCache{rdb: rdb}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get retrieves a value from Redis. Network failures are retried.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return classifyErr(err)
		}
		data = b
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis. A ttl <= 0 stores the key without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return RetryWithBackoff(ctx, func() error {
		return classifyErr(c.rdb.Set(ctx, key, data, ttl).Err())
	})
}

// Delete removes a key from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, func() error {
		return classifyErr(c.rdb.Del(ctx, key).Err())
	})
}

// Clear deletes all extraction keys and returns how many were removed. Keys
// written through a ScopedKeyer are matched as well.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	count := 0
	iter := c.rdb.Scan(ctx, 0, "*extract:*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return count, classifyErr(err)
		}
		count += int(n)
	}
	if err := iter.Err(); err != nil {
		return count, classifyErr(err)
	}
	return count, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// classifyErr marks connection failures as retryable network errors.
func classifyErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, redis.ErrClosed) {
		return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	return err
}

// Ensure RedisCache implements Cache and Clearer.
var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
