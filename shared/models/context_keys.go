package models

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsContextKey stores the verified *Claims of the request principal.
	ClaimsContextKey contextKey = "tokenClaims"
	// UserContextKey stores the user id of the request principal.
	UserContextKey contextKey = "userID"
	// AuthoritiesContextKey stores the []string authorities of the principal.
	AuthoritiesContextKey contextKey = "userAuthorities"
)

// Propagated headers, edge -> backend only. The gateway strips inbound copies
// before setting them, external clients can never inject these.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUsername    = "X-User-Name"
	HeaderAuthorities = "X-User-Authorities"
)

// GetClaimsFromContext extracts the verified claims from the context.
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// GetUserIDFromContext extracts the user id from the context.
func GetUserIDFromContext(ctx context.Context) (uint64, bool) {
	userID, ok := ctx.Value(UserContextKey).(uint64)
	return userID, ok
}

// GetAuthoritiesFromContext extracts the authorities slice from the context.
func GetAuthoritiesFromContext(ctx context.Context) ([]string, bool) {
	authorities, ok := ctx.Value(AuthoritiesContextKey).([]string)
	return authorities, ok
}
