package service

import (
	"context"
	"errors"
	"fmt"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"go.uber.org/zap"
)

// EnsureInternalClient eagerly resolves the configured internal-service client
// at process start. A configured id that cannot be found is a fatal startup
// error: better to fail fast than to discover the misconfiguration on the
// first login request.
func EnsureInternalClient(ctx context.Context, store interfaces.RegisteredClientStore, clientID string, logger *zap.Logger) error {
	if clientID == "" {
		logger.Info("No internal user client configured, skipping warmup check")
		return nil
	}
	client, err := store.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			return fmt.Errorf("%w: internal user client %q is not registered", models.ErrConfiguration, clientID)
		}
		return fmt.Errorf("failed to resolve internal user client %q: %w", clientID, err)
	}
	logger.Info("Internal user client resolved",
		zap.String("clientID", client.ClientID),
		zap.Duration("accessTokenTTL", client.AccessTokenTTL),
	)
	return nil
}
