package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgRegisteredClientRepository implements RegisteredClientStore
var _ interfaces.RegisteredClientStore = (*pgRegisteredClientRepository)(nil)

type pgRegisteredClientRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgRegisteredClientRepository creates a new PostgreSQL-backed RegisteredClientStore.
// The table is owned by the authorization server; this repository is read-only.
func NewPgRegisteredClientRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.RegisteredClientStore {
	return &pgRegisteredClientRepository{
		db:     db,
		logger: logger.Named("PgRegisteredClientRepo"),
	}
}

// GetByClientID retrieves a client registration by its client id.
func (r *pgRegisteredClientRepository) GetByClientID(ctx context.Context, clientID string) (*models.RegisteredClient, error) {
	query := `SELECT client_id, client_secret, grant_types, scopes, access_token_ttl_seconds FROM oauth2_registered_clients WHERE client_id = $1`
	client := &models.RegisteredClient{}
	var ttlSeconds int64
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("clientID", clientID))
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&client.ClientID,
		&client.ClientSecret,
		&client.GrantTypes,
		&client.Scopes,
		&ttlSeconds,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Registered client not found", zap.String("clientID", clientID))
			return nil, models.ErrClientNotFound
		}
		r.logger.Error("Failed to get registered client from postgres", zap.Error(err), zap.String("clientID", clientID))
		return nil, fmt.Errorf("failed to get registered client from postgres: %w", err)
	}
	client.AccessTokenTTL = time.Duration(ttlSeconds) * time.Second
	return client, nil
}
