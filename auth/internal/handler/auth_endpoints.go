package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"token-platform/shared/models"

	"github.com/gin-gonic/gin"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 100
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// @Summary User login
// @Description Authenticates a user by password and mints a signed access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} loginResponse "Access token"
// @Failure 400 {object} models.ErrorResponse "Invalid request data"
// @Failure 401 {object} models.ErrorResponse "Wrong credentials"
// @Failure 403 {object} models.ErrorResponse "Account disabled"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	if len(req.Username) < minUsernameLength || len(req.Username) > maxUsernameLength {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: fmt.Sprintf("Username length must be between %d and %d characters", minUsernameLength, maxUsernameLength)}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}
	if !usernameRegex.MatchString(req.Username) {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Username can only contain letters, numbers, underscores, and hyphens"}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: fmt.Sprintf("Password length must be between %d and %d characters", minPasswordLength, maxPasswordLength)}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	details, err := h.tokenService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		loginFailuresTotal.Inc()
		handleServiceError(c, err)
		return
	}

	loginsTotal.Inc()
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: details.AccessToken,
		TokenType:   details.TokenType,
		ExpiresIn:   details.ExpiresIn,
	})
}

// @Summary User logout
// @Description Revokes the presented bearer token for its remaining lifetime
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Logged out"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	rawToken, ok := bearerToken(c)
	if !ok {
		errResp := models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Authorization header with Bearer token is required"}
		c.AbortWithStatusJSON(http.StatusUnauthorized, errResp)
		return
	}
	h.revokeToken(c, rawToken)
}

// @Summary Revoke a token
// @Description Marks a token as revoked; an already-expired token is accepted as a no-op
// @Tags oauth2
// @Accept json
// @Produce json
// @Param request body revokeRequest false "Token to revoke; defaults to the bearer token"
// @Success 200 {object} map[string]interface{} "Revoked"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Router /oauth2/revoke [post]
func (h *AuthHandler) revoke(c *gin.Context) {
	var req revokeRequest
	// The body is optional, ignore bind errors for an empty body.
	_ = c.ShouldBindJSON(&req)

	rawToken := strings.TrimSpace(req.Token)
	if rawToken == "" {
		var ok bool
		rawToken, ok = bearerToken(c)
		if !ok {
			errResp := models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Provide a token in the body or an Authorization Bearer header"}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errResp)
			return
		}
	}
	h.revokeToken(c, rawToken)
}

// revokeToken verifies the token where possible and writes the revocation.
// An expired token succeeds without a store write: there is nothing left to
// revoke, and callers retrying a logout should not see an error.
func (h *AuthHandler) revokeToken(c *gin.Context, rawToken string) {
	revokeRequestsTotal.Inc()

	if _, err := h.verifier.VerifyToken(c.Request.Context(), rawToken); err != nil {
		if errors.Is(err, models.ErrTokenExpired) {
			c.JSON(http.StatusOK, gin.H{"message": "Token already expired"})
			return
		}
		handleServiceError(c, err)
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), rawToken); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token revoked"})
}

// @Summary Clear a revocation entry
// @Description Removes a revocation entry by its jti; an operator override for a mistaken revoke
// @Tags internal
// @Produce json
// @Param id path string true "Token jti"
// @Success 200 {object} map[string]interface{} "Cleared"
// @Router /internal/revocations/{id} [delete]
func (h *AuthHandler) clearRevocation(c *gin.Context) {
	id := c.Param("id")
	if err := h.revocations.Clear(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Revocation cleared"})
}

// bearerToken extracts the Bearer token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(authHeader[len(prefix):]), true
}
