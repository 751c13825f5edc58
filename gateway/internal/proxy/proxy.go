// Package proxy implements the gateway's path-prefix reverse proxy.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"token-platform/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Route binds a path prefix to an upstream base URL.
type Route struct {
	Prefix   string
	Upstream *url.URL
}

// ParseRoutes parses the comma-separated prefix=url route list. Routes are
// returned longest prefix first so lookup can stop at the first match.
func ParseRoutes(spec string) ([]Route, error) {
	var routes []Route
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		prefix, rawURL, found := strings.Cut(pair, "=")
		if !found || prefix == "" || rawURL == "" {
			return nil, fmt.Errorf("invalid route entry %q, expected prefix=url", pair)
		}
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", prefix)
		}
		upstream, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream url %q for prefix %q: %w", rawURL, prefix, err)
		}
		if upstream.Scheme == "" || upstream.Host == "" {
			return nil, fmt.Errorf("upstream url %q for prefix %q must be absolute", rawURL, prefix)
		}
		routes = append(routes, Route{Prefix: prefix, Upstream: upstream})
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes configured")
	}
	sort.Slice(routes, func(i, j int) bool {
		return len(routes[i].Prefix) > len(routes[j].Prefix)
	})
	return routes, nil
}

// Proxy forwards requests to the upstream whose prefix matches the request
// path. The full original path is preserved on the upstream request.
type Proxy struct {
	routes  []Route
	proxies map[string]*httputil.ReverseProxy
	logger  *zap.Logger
}

// New creates a Proxy for the given routes.
func New(routes []Route, logger *zap.Logger) *Proxy {
	log := logger.Named("Proxy")
	proxies := make(map[string]*httputil.ReverseProxy, len(routes))
	for _, route := range routes {
		upstream := route.Upstream
		rp := httputil.NewSingleHostReverseProxy(upstream)
		rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("Upstream request failed",
				zap.String("upstream", upstream.String()),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			models.SendJSONError(w, models.ErrCodeInternal, "Upstream service is unavailable", http.StatusBadGateway)
		}
		proxies[route.Prefix] = rp
		log.Info("Route registered", zap.String("prefix", route.Prefix), zap.String("upstream", upstream.String()))
	}
	return &Proxy{routes: routes, proxies: proxies, logger: log}
}

// Handler returns the gin handler that dispatches to the matching upstream.
func (p *Proxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, route := range p.routes {
			if strings.HasPrefix(path, route.Prefix) {
				p.proxies[route.Prefix].ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{
			Code:    models.ErrCodeBadRequest,
			Message: "No route for path",
		})
	}
}
