package database

import (
	"context"
	"fmt"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisTokenCache implements TokenCache
var _ interfaces.TokenCache = (*redisTokenCache)(nil)

type redisTokenCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenCache creates a new Redis-backed TokenCache.
func NewRedisTokenCache(client *redis.Client, logger *zap.Logger) interfaces.TokenCache {
	return &redisTokenCache{
		client: client,
		logger: logger.Named("RedisTokenCache"),
	}
}

// Get returns the cached value for key, or models.ErrCacheMiss.
func (c *redisTokenCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			c.logger.Debug("Cache miss", zap.String("key", key))
			return "", models.ErrCacheMiss
		}
		c.logger.Error("Failed to get value from redis", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to get value from redis: %w", err)
	}
	return value, nil
}

// GetWithTTL returns the cached value and its remaining TTL in one round trip.
// Uses a pipeline so value and TTL describe the same point in time.
func (c *redisTokenCache) GetWithTTL(ctx context.Context, key string) (string, time.Duration, error) {
	pipe := c.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil {
		if err == redis.Nil {
			c.logger.Debug("Cache miss", zap.String("key", key))
			return "", 0, models.ErrCacheMiss
		}
		c.logger.Error("Failed to execute pipeline for cached value and TTL", zap.Error(err), zap.String("key", key))
		return "", 0, fmt.Errorf("failed to get value and ttl from redis: %w", err)
	}

	value, err := getCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return "", 0, models.ErrCacheMiss
		}
		return "", 0, fmt.Errorf("failed to get value from redis: %w", err)
	}

	ttl, err := ttlCmd.Result()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get ttl from redis: %w", err)
	}
	// -1 means no expiry, -2 means the key vanished between the two commands.
	if ttl < 0 {
		ttl = 0
	}
	return value, ttl, nil
}

// Set stores value under key with the given TTL.
func (c *redisTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.logger.Debug("Setting cached value", zap.String("key", key), zap.Duration("ttl", ttl))
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("Failed to set value in redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to set value in redis: %w", err)
	}
	return nil
}

// Delete evicts key from the cache.
func (c *redisTokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Failed to delete key from redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete key from redis: %w", err)
	}
	return nil
}
