package models

import "github.com/golang-jwt/jwt/v5"

// Grant types we care about when deciding whether a principal is a machine.
const (
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
)

// Claims carries the registered JWT fields plus the custom claims the
// platform attaches at issuance time.
type Claims struct {
	UserID               uint64   `json:"user_id,omitempty"`
	Username             string   `json:"username,omitempty"`
	Nickname             string   `json:"nickname,omitempty"`
	Status               int      `json:"status,omitempty"`
	Authorities          []string `json:"authorities,omitempty"`
	GrantType            string   `json:"grant_type,omitempty"`
	ClientID             string   `json:"client_id,omitempty"`
	jwt.RegisteredClaims          // Issuer, Subject, Audience, ExpiresAt, IssuedAt, ID (jti)
}

// IsClientCredentials reports whether the token belongs to a machine-to-machine
// grant. The explicit grant-type claim wins; `sub == client_id` is the
// heuristic fallback for tokens minted by servers that omit it.
func (c *Claims) IsClientCredentials() bool {
	if c.GrantType != "" {
		return c.GrantType == GrantClientCredentials
	}
	return c.ClientID != "" && c.Subject == c.ClientID
}
