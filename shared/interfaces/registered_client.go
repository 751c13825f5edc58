package interfaces

import (
	"context"

	"token-platform/shared/models"
)

// RegisteredClientStore reads OAuth2 client registrations. The records are
// owned by the authorization server; this platform only consumes them.
// Implementations return models.ErrClientNotFound when the id is unknown.
type RegisteredClientStore interface {
	GetByClientID(ctx context.Context, clientID string) (*models.RegisteredClient, error)
}
