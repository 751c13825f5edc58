package service

import (
	"context"
	"time"

	"token-platform/shared/authutils"
	"token-platform/shared/interfaces"
	"token-platform/shared/messaging"

	"go.uber.org/zap"
)

// RevocationEventPublisher fans a revocation out to interested services.
// Satisfied by *messaging.RevocationPublisher; may be nil when the deployment
// runs without a broker.
type RevocationEventPublisher interface {
	Publish(ctx context.Context, event messaging.RevocationEvent) error
}

// RevocationWriter turns a logout or explicit revoke into a revocation store
// entry with the token's remaining natural lifetime.
type RevocationWriter struct {
	store     interfaces.RevocationStore
	publisher RevocationEventPublisher
	logger    *zap.Logger
}

// NewRevocationWriter creates a new RevocationWriter.
func NewRevocationWriter(store interfaces.RevocationStore, publisher RevocationEventPublisher, logger *zap.Logger) *RevocationWriter {
	return &RevocationWriter{
		store:     store,
		publisher: publisher,
		logger:    logger.Named("RevocationWriter"),
	}
}

// Revoke marks rawToken as revoked for its remaining lifetime. The lookup key
// prefers the jti claim; a token without one is keyed by its raw string.
//
// Trust assumption of the raw-token fallback: anyone who captured such a
// token can have it blacklisted by replaying it into a revoke call. Since the
// endpoints require presenting the token itself and blacklisting only ever
// narrows what the token can do, that is accepted.
//
// A token already past its expiry is a no-op, there is nothing left to protect.
func (w *RevocationWriter) Revoke(ctx context.Context, rawToken string) error {
	claims, err := authutils.ExtractClaimsUnverified(rawToken)
	if err != nil {
		w.logger.Warn("Refusing to revoke undecodable token",
			zap.String("tokenSnippet", authutils.TokenSnippet(rawToken)),
			zap.Error(err),
		)
		return err
	}

	// The masked form is for logging only; the store key is always unmasked.
	identifier := claims.ID
	logged := claims.ID
	if identifier == "" {
		identifier = rawToken
		logged = maskToken(rawToken)
	}
	log := w.logger.With(zap.String("token", logged), zap.String("subject", claims.Subject))

	if claims.ExpiresAt == nil {
		log.Warn("Token has no expiry claim, nothing to revoke against")
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		log.Debug("Token already expired, revocation is a no-op")
		return nil
	}

	if err := w.store.MarkRevoked(ctx, identifier, remaining); err != nil {
		log.Error("Failed to write revocation entry", zap.Error(err))
		return err
	}
	revocationsTotal.Inc()
	log.Info("Token revoked", zap.Duration("remaining", remaining))

	if w.publisher != nil {
		event := messaging.RevocationEvent{
			JTI:       claims.ID,
			Subject:   claims.Subject,
			RevokedAt: time.Now(),
			ExpiresAt: claims.ExpiresAt.Time,
		}
		// The store entry is the source of truth; a failed publish is logged,
		// never surfaced.
		if err := w.publisher.Publish(ctx, event); err != nil {
			log.Warn("Failed to publish revocation event", zap.Error(err))
		}
	}
	return nil
}

// maskToken returns a log-safe representation of a raw token.
func maskToken(raw string) string {
	if len(raw) <= 10 {
		return "***"
	}
	return raw[:6] + "..." + raw[len(raw)-4:]
}
