package authutils

import (
	"context"
	"errors"
	"fmt"

	"token-platform/shared/keys"
	"token-platform/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTVerifier checks platform JWTs against the key set.
type JWTVerifier struct {
	keySet *keys.KeySet
	logger *zap.Logger
}

// NewJWTVerifier creates a new JWTVerifier.
// Takes the key set and optionally a logger. A nil logger falls back to Noop.
func NewJWTVerifier(keySet *keys.KeySet, logger *zap.Logger) (*JWTVerifier, error) {
	if keySet == nil {
		return nil, errors.New("key set cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		keySet: keySet,
		logger: logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken checks the JWT signature and validity and extracts the claims.
func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", TokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keySet.Keyfunc)
	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, models.ErrTokenInvalid
	}

	log.Debug("Token verified successfully", zap.String("subject", claims.Subject), zap.String("jti", claims.ID))
	return claims, nil
}

// ExtractClaimsUnverified decodes the claims of a JWT without checking the
// signature. Revocation bookkeeping uses this: the token's jti and expiry are
// needed even when the caller cannot (or must not) vouch for the signature.
func ExtractClaimsUnverified(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	}
	return claims, nil
}

// TokenSnippet returns a log-safe fragment of a token.
func TokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
