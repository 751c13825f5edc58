package models

import "time"

// CachedToken describes a machine token held in the shared cache. The value is
// written once per refresh cycle by the acquisition client and read by every
// caller sharing the cache key; the store's native expiry guarantees the value
// is never served past RemainingTTL.
type CachedToken struct {
	Value        string        `json:"value"`
	IssuedAt     time.Time     `json:"issued_at"`
	RemainingTTL time.Duration `json:"-"`
}

// RegisteredClient is the read-only view of an OAuth2 client registration.
// The platform consumes these records, it never mutates them.
type RegisteredClient struct {
	ClientID       string        `db:"client_id" json:"client_id"`
	ClientSecret   string        `db:"client_secret" json:"-"`
	GrantTypes     []string      `db:"grant_types" json:"grant_types"`
	Scopes         []string      `db:"scopes" json:"scopes"`
	AccessTokenTTL time.Duration `db:"access_token_ttl" json:"access_token_ttl"`
}

// TokenDetails is the envelope returned by the direct-mint login path.
type TokenDetails struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
