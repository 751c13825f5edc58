package interfaces

import (
	"context"
	"time"
)

// RevocationStore marks token identifiers (jti or raw token) as revoked.
// Entries self-expire with the token's remaining natural lifetime, normal
// operation never deletes them explicitly.
//
// Both backend services deploy this component against the same underlying
// store and key prefix, so a revocation issued by one is visible to all.
type RevocationStore interface {
	// MarkRevoked writes a revocation entry for identifier with the given TTL.
	MarkRevoked(ctx context.Context, identifier string, ttl time.Duration) error

	// IsRevoked reports whether identifier is revoked. Fail-safe-deny: a store
	// error counts as revoked, only a clean miss returns false.
	IsRevoked(ctx context.Context, identifier string) bool

	// Clear removes a revocation entry. Administrative override only.
	Clear(ctx context.Context, identifier string) error
}
