package interfaces

import (
	"context"
	"time"
)

// TokenCache is the shared key/value cache used for machine tokens.
// This interface lives in shared so that implementations (shared/database)
// and consumers (the acquisition client) can depend on it without circular
// dependencies or reaching into internal packages.
//
// Implementations must return models.ErrCacheMiss on a clean miss and rely on
// the underlying store's native expiry: a value is never returned past its TTL.
type TokenCache interface {
	// Get returns the cached value for key.
	Get(ctx context.Context, key string) (string, error)

	// GetWithTTL returns the cached value together with its remaining TTL.
	GetWithTTL(ctx context.Context, key string) (string, time.Duration, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete evicts key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
