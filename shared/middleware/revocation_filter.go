package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var edgeDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gateway_revocation_denials_total",
	Help: "Total number of requests denied by the edge revocation filter.",
})

// defaultLookupTimeout bounds a single revocation lookup so a slow store
// cannot pin request handlers.
const defaultLookupTimeout = 2 * time.Second

// RevocationFilterConfig controls which requests the filter inspects.
type RevocationFilterConfig struct {
	// SkipPaths are path prefixes excluded from the check (internal and
	// observability routes).
	SkipPaths []string
	// SkipClientCredentials exempts machine-to-machine principals.
	SkipClientCredentials bool
	// LookupTimeout bounds each store lookup; defaults to 2s.
	LookupTimeout time.Duration
}

// RevocationFilter checks every bearer-carrying request against the shared
// revocation store before it is routed to a backend.
//
// Chain ordering matters: this must run after AuthContext has populated the
// request context (the lookup key prefers the verified jti) and before the
// proxy handler. Requests without a bearer token pass through unchanged;
// anonymous routes are not this filter's concern.
//
// The response for a revoked token and for a store that could not be reached
// is identical on purpose: callers must not be able to probe store health.
func RevocationFilter(store interfaces.RevocationStore, cfg RevocationFilterConfig, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RevocationFilter")
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range cfg.SkipPaths {
			if prefix != "" && strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		rawValue, hasToken := c.Get(ContextRawTokenKey)
		rawToken, _ := rawValue.(string)
		if !hasToken || rawToken == "" {
			c.Next()
			return
		}

		// Prefer the verified jti; fall back to the raw bearer string when the
		// token has no jti or the principal could not be resolved at all.
		key := rawToken
		if claims, ok := ClaimsFromGinContext(c); ok {
			if cfg.SkipClientCredentials && claims.IsClientCredentials() {
				c.Next()
				return
			}
			if claims.ID != "" {
				key = claims.ID
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
		defer cancel()

		if store.IsRevoked(ctx, key) {
			edgeDenialsTotal.Inc()
			log.Warn("Request denied by revocation filter", zap.String("path", path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeTokenRevoked,
				Message: "Token has been revoked",
			})
			return
		}

		c.Next()
	}
}
