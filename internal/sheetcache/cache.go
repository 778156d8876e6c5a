package sheetcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the last good sheet payload in Redis.
type Cache struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache connects lazily; call Ping or WaitForConnection to check.
func NewCache(redisURL, sheetID string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewCacheWithClient(redis.NewClient(opt), sheetID, ttl, logger), nil
}

// NewCacheWithClient wraps an existing client.
func NewCacheWithClient(rdb *redis.Client, sheetID string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		rdb:    rdb,
		key:    Key(sheetID),
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the Redis key a sheet is cached under.
func Key(sheetID string) string {
	return "sheet:" + sheetID
}

// Get returns the cached payload. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Sheet cache miss", "key", c.key)
			return nil, false, nil
		}
		c.logger.Error("Redis GET failed", "key", c.key, "error", err)
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	c.logger.Debug("Sheet cache hit", "key", c.key, "bytes", len(data))
	return data, true, nil
}

// Store writes the payload with the configured TTL. A zero TTL keeps it
// until replaced.
func (c *Cache) Store(ctx context.Context, data []byte) error {
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Redis SET failed", "key", c.key, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	c.logger.Debug("Sheet cached", "key", c.key, "bytes", len(data), "ttl", c.ttl)
	return nil
}

// Invalidate drops the cached payload.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// WaitForConnection retries Ping until Redis answers or ctx ends.
func (c *Cache) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := c.Ping(ctx); err != nil {
			c.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		c.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Client exposes the underlying client so the event broadcaster can share
// the connection pool.
func (c *Cache) Client() *redis.Client {
	return c.rdb
}

func (c *Cache) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	c.logger.Info("Redis connection closed")
	return nil
}
