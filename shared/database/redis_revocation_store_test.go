package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRevocationTestStore(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRevocationStore_MarkAndLookup(t *testing.T) {
	mr, client := newRevocationTestStore(t)
	store := NewRedisRevocationStore(client, zap.NewNop())
	ctx := context.Background()

	assert.False(t, store.IsRevoked(ctx, "jti-1"), "unknown identifier must not be revoked")

	require.NoError(t, store.MarkRevoked(ctx, "jti-1", 2*time.Minute))
	assert.True(t, store.IsRevoked(ctx, "jti-1"))

	// The entry lives under the shared blacklist prefix.
	value, err := mr.Get("jwt:blacklist:jti-1")
	require.NoError(t, err)
	assert.Equal(t, "true", value)

	ttl := mr.TTL("jwt:blacklist:jti-1")
	assert.InDelta(t, (2 * time.Minute).Seconds(), ttl.Seconds(), 1)
}

func TestRevocationStore_EntrySelfExpires(t *testing.T) {
	mr, client := newRevocationTestStore(t)
	store := NewRedisRevocationStore(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.MarkRevoked(ctx, "jti-2", 30*time.Second))
	require.True(t, store.IsRevoked(ctx, "jti-2"))

	mr.FastForward(31 * time.Second)
	assert.False(t, store.IsRevoked(ctx, "jti-2"), "the entry must vanish with the token's natural expiry")
}

func TestRevocationStore_ExpiredTokenIsNoOp(t *testing.T) {
	mr, client := newRevocationTestStore(t)
	store := NewRedisRevocationStore(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.MarkRevoked(ctx, "jti-3", 0))
	require.NoError(t, store.MarkRevoked(ctx, "jti-3", -5*time.Second))
	assert.False(t, mr.Exists("jwt:blacklist:jti-3"), "no entry may be written for an already-expired token")
}

func TestRevocationStore_FailSafeDenyOnOutage(t *testing.T) {
	mr, client := newRevocationTestStore(t)
	store := NewRedisRevocationStore(client, zap.NewNop())
	ctx := context.Background()

	mr.Close()
	assert.True(t, store.IsRevoked(ctx, "jti-4"), "an unreachable store must answer revoked, never clean")
}

func TestRevocationStore_Clear(t *testing.T) {
	_, client := newRevocationTestStore(t)
	store := NewRedisRevocationStore(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.MarkRevoked(ctx, "jti-5", time.Minute))
	require.True(t, store.IsRevoked(ctx, "jti-5"))

	require.NoError(t, store.Clear(ctx, "jti-5"))
	assert.False(t, store.IsRevoked(ctx, "jti-5"))
}
