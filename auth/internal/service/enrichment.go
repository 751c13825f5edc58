package service

import (
	"context"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"go.uber.org/zap"
)

// ClaimsEnricher augments token claims with user identity and authority data
// from the upstream directory at issuance time.
//
// Enrichment is best-effort, not a hard dependency: when the directory lookup
// fails, issuance proceeds with a degraded claim set carrying at least the
// principal name. Client-credentials grants are exempt, no subject user exists
// for them.
type ClaimsEnricher struct {
	directory interfaces.UserDirectoryClient
	logger    *zap.Logger
}

// NewClaimsEnricher creates a new ClaimsEnricher.
func NewClaimsEnricher(directory interfaces.UserDirectoryClient, logger *zap.Logger) *ClaimsEnricher {
	return &ClaimsEnricher{
		directory: directory,
		logger:    logger.Named("ClaimsEnricher"),
	}
}

// Enrich attaches the custom user claims for principal before the token is
// signed. Returns false when the claim set was degraded.
func (e *ClaimsEnricher) Enrich(ctx context.Context, claims *models.Claims, grantType, principal string) bool {
	if grantType == models.GrantClientCredentials {
		return true
	}

	claims.Username = principal
	account, err := e.directory.GetUserByUsername(ctx, principal)
	if err != nil {
		enrichmentDegradedTotal.Inc()
		e.logger.Warn("Claim enrichment degraded, issuing with reduced claim set",
			zap.String("principal", principal),
			zap.Error(err),
		)
		return false
	}

	claims.UserID = account.UserID
	claims.Nickname = account.Nickname
	claims.Status = account.Status
	claims.Authorities = account.Authorities
	return true
}
