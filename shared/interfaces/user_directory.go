package interfaces

import "context"

// UserAccount is the directory record used for claim enrichment and the
// direct-mint login path. PasswordHash is only populated by directory
// endpoints that serve the login flow.
type UserAccount struct {
	UserID       uint64   `json:"user_id"`
	Username     string   `json:"username"`
	Nickname     string   `json:"nickname"`
	Status       int      `json:"status"`
	Authorities  []string `json:"authorities"`
	PasswordHash string   `json:"password_hash,omitempty"`
}

// UserDirectoryClient talks to the upstream user-directory service.
// Implementations return models.ErrUserNotFound for unknown usernames.
type UserDirectoryClient interface {
	GetUserByUsername(ctx context.Context, username string) (*UserAccount, error)
}
