package database

import (
	"context"
	"fmt"
	"time"

	"token-platform/shared/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// revocationKeyPrefix is shared by every service deployment; a revocation
// written by one backend must be visible to all of them. Must stay bit-exact.
const revocationKeyPrefix = "jwt:blacklist:"

var revocationLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "revocation_store_lookups_total",
		Help: "Total number of revocation store lookups by result.",
	},
	[]string{"result"},
)

// Compile-time check to ensure redisRevocationStore implements RevocationStore
var _ interfaces.RevocationStore = (*redisRevocationStore)(nil)

type redisRevocationStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRevocationStore creates a new Redis-backed RevocationStore.
func NewRedisRevocationStore(client *redis.Client, logger *zap.Logger) interfaces.RevocationStore {
	return &redisRevocationStore{
		client: client,
		logger: logger.Named("RedisRevocationStore"),
	}
}

// MarkRevoked writes a boolean-true entry for identifier with the given TTL.
// The entry self-expires with the token's remaining natural lifetime; a
// non-positive TTL means the token is already expired and there is nothing
// to protect.
func (s *redisRevocationStore) MarkRevoked(ctx context.Context, identifier string, ttl time.Duration) error {
	if ttl <= 0 {
		s.logger.Debug("Skipping revocation entry for already-expired token")
		return nil
	}
	key := revocationKeyPrefix + identifier
	if err := s.client.Set(ctx, key, "true", ttl).Err(); err != nil {
		s.logger.Error("Failed to write revocation entry", zap.Error(err), zap.Duration("ttl", ttl))
		return fmt.Errorf("failed to write revocation entry: %w", err)
	}
	s.logger.Info("Revocation entry written", zap.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether identifier is revoked. Fail-safe-deny: if the
// store cannot be reached the answer is true. A store outage must never
// silently let a revoked token back in.
func (s *redisRevocationStore) IsRevoked(ctx context.Context, identifier string) bool {
	key := revocationKeyPrefix + identifier
	_, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		revocationLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err != nil {
		revocationLookupsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Revocation store unreachable, treating token as revoked", zap.Error(err))
		return true
	}
	revocationLookupsTotal.WithLabelValues("hit").Inc()
	return true
}

// Clear removes a revocation entry. This is an administrative override and is
// never called in normal operation; entries are meant to self-expire.
func (s *redisRevocationStore) Clear(ctx context.Context, identifier string) error {
	key := revocationKeyPrefix + identifier
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("Failed to clear revocation entry", zap.Error(err))
		return fmt.Errorf("failed to clear revocation entry: %w", err)
	}
	s.logger.Warn("Revocation entry cleared by administrative override")
	return nil
}
