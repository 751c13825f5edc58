package middleware

import (
	"strconv"
	"strings"

	"token-platform/shared/authutils"
	"token-platform/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys populated by AuthContext and consumed by RevocationFilter.
const (
	ContextClaimsKey   = "authClaims"
	ContextRawTokenKey = "authRawToken"
)

// AuthContext populates the request context with the verified bearer claims.
// It never rejects a request on its own: requests without a bearer token pass
// through untouched, and verification failures only leave the raw token in the
// context so the revocation filter can still derive a lookup key.
//
// Inbound copies of the propagation headers are always stripped; only the
// gateway itself may set them on the way to a backend.
func AuthContext(verifier *authutils.JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(models.HeaderUserID)
		c.Request.Header.Del(models.HeaderUsername)
		c.Request.Header.Del(models.HeaderAuthorities)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}
		tokenString := parts[1]
		c.Set(ContextRawTokenKey, tokenString)

		claims, err := verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debug("Bearer token did not verify, principal not resolved",
				zap.Error(err),
				zap.String("tokenSnippet", authutils.TokenSnippet(tokenString)),
			)
			c.Next()
			return
		}
		c.Set(ContextClaimsKey, claims)

		if !claims.IsClientCredentials() {
			c.Request.Header.Set(models.HeaderUserID, strconv.FormatUint(claims.UserID, 10))
			c.Request.Header.Set(models.HeaderUsername, claims.Username)
			c.Request.Header.Set(models.HeaderAuthorities, strings.Join(claims.Authorities, ","))
		}

		c.Next()
	}
}

// ClaimsFromGinContext extracts the claims AuthContext stored, if any.
func ClaimsFromGinContext(c *gin.Context) (*models.Claims, bool) {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.Claims)
	return claims, ok
}
