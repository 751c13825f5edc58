package handler

import (
	"net/http"

	"token-platform/auth/internal/service"
	"token-platform/shared/authutils"
	"token-platform/shared/interfaces"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	tokenService *service.TokenService
	revoker      *service.RevocationWriter
	verifier     *authutils.JWTVerifier
	revocations  interfaces.RevocationStore
}

func NewAuthHandler(
	tokenService *service.TokenService,
	revoker *service.RevocationWriter,
	verifier *authutils.JWTVerifier,
	revocations interfaces.RevocationStore,
) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		revoker:      revoker,
		verifier:     verifier,
		revocations:  revocations,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine, rateLimitMiddleware gin.HandlerFunc) {
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/login", rateLimitMiddleware, h.login)
		authGroup.POST("/logout", h.logout)
	}

	// OAuth2-shaped surface for service callers.
	oauthGroup := router.Group("/oauth2")
	{
		oauthGroup.POST("/revoke", h.revoke)
	}

	// Operator surface, expected to be reachable only from inside the network.
	internalGroup := router.Group("/internal")
	{
		internalGroup.DELETE("/revocations/:id", h.clearRevocation)
	}

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
}
