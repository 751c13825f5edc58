package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-platform/shared/models"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenCache_SetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewRedisTokenCache(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "internal:token:svc-a:internal:", "tok", 5*time.Minute))

	value, err := cache.Get(ctx, "internal:token:svc-a:internal:")
	require.NoError(t, err)
	assert.Equal(t, "tok", value)

	require.NoError(t, cache.Delete(ctx, "internal:token:svc-a:internal:"))
	_, err = cache.Get(ctx, "internal:token:svc-a:internal:")
	assert.True(t, errors.Is(err, models.ErrCacheMiss))
}

func TestTokenCache_GetWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewRedisTokenCache(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", 4*time.Minute))

	value, ttl, err := cache.GetWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
	assert.InDelta(t, (4 * time.Minute).Seconds(), ttl.Seconds(), 1)

	_, _, err = cache.GetWithTTL(ctx, "absent")
	assert.True(t, errors.Is(err, models.ErrCacheMiss))
}
