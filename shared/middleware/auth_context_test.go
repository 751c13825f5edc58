package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"token-platform/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthContextRouter(s *signer, captured *http.Header) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthContext(s.verifier, zap.NewNop()))
	router.GET("/echo", func(c *gin.Context) {
		*captured = c.Request.Header.Clone()
		if claims, ok := ClaimsFromGinContext(c); ok {
			c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": ""})
	})
	return router
}

func TestAuthContext_StripsInboundPropagationHeaders(t *testing.T) {
	s := newSigner(t)
	var captured http.Header
	router := newAuthContextRouter(s, &captured)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	// Spoofed identity headers must never reach a backend.
	req.Header.Set(models.HeaderUserID, "999")
	req.Header.Set(models.HeaderUsername, "mallory")
	req.Header.Set(models.HeaderAuthorities, "ROLE_ADMIN")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured.Get(models.HeaderUserID))
	assert.Empty(t, captured.Get(models.HeaderUsername))
	assert.Empty(t, captured.Get(models.HeaderAuthorities))
}

func TestAuthContext_SetsPropagationHeadersForUserToken(t *testing.T) {
	s := newSigner(t)
	var captured http.Header
	router := newAuthContextRouter(s, &captured)

	claims := userClaims("jti-headers")
	claims.UserID = 42
	claims.Authorities = []string{"ROLE_USER", "ROLE_REPORTER"}
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer "+s.sign(t, claims))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", captured.Get(models.HeaderUserID))
	assert.Equal(t, "alice", captured.Get(models.HeaderUsername))
	assert.Equal(t, "ROLE_USER,ROLE_REPORTER", captured.Get(models.HeaderAuthorities))
}

func TestAuthContext_NoHeadersForMachineToken(t *testing.T) {
	s := newSigner(t)
	var captured http.Header
	router := newAuthContextRouter(s, &captured)

	machine := &models.Claims{
		GrantType: models.GrantClientCredentials,
		ClientID:  "svc-a",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "svc-a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-m",
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer "+s.sign(t, machine))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured.Get(models.HeaderUserID), "machine principals carry no user identity")
	assert.Empty(t, captured.Get(models.HeaderUsername))
}

func TestAuthContext_UnverifiableTokenPassesThrough(t *testing.T) {
	s := newSigner(t)
	var captured http.Header
	router := newAuthContextRouter(s, &captured)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.value")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Rejection is not this middleware's job.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured.Get(models.HeaderUsername))
}
