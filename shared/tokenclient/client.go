package tokenclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"go.uber.org/zap"
)

const (
	// DefaultHTTPTimeout bounds the client-credentials fetch. A synchronous
	// refresh that exceeds it surfaces as an error to the original caller.
	DefaultHTTPTimeout = 10 * time.Second
	// DefaultCacheTTL caps how long a fetched token stays cached.
	DefaultCacheTTL = 540 * time.Second
	// DefaultRefreshAhead is the window before expiry in which a cached token
	// is still served while a background refresh is triggered.
	DefaultRefreshAhead = 60 * time.Second
	// minCacheTTL is the floor for the short-lived-token fallback.
	minCacheTTL = 5 * time.Second

	refreshQueueSize = 16
)

// Config holds the acquisition client settings. Scope and Audience are the
// defaults applied when a caller passes blank values.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string
	Audience     string

	DefaultCacheTTL time.Duration
	RefreshAhead    time.Duration
	HTTPTimeout     time.Duration
}

// Client obtains machine-to-machine access tokens via the client-credentials
// grant and caches them in the shared token cache (cache-aside with
// refresh-ahead). One fresh token exists cluster-wide per cache key because
// the key is derived deterministically from (clientId, scope, audience).
//
// A single mutex guarantees at most one in-flight synchronous fetch per client
// instance. The lock has no release bound beyond the HTTP client's own
// timeout: a transport that hangs past its deadline stalls every caller of
// that key for the duration.
type Client struct {
	cfg        Config
	cache      interfaces.TokenCache
	httpClient *http.Client
	logger     *zap.Logger

	// mu serializes the check-then-fetch-then-write sequence. Callers served
	// from the cache never take it.
	mu sync.Mutex

	refreshCh chan refreshSpec
	pendingMu sync.Mutex
	pending   map[string]struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

type refreshSpec struct {
	key      string
	scope    string
	audience string
}

// New creates a Client and starts its background refresh worker.
func New(cfg Config, cache interfaces.TokenCache, logger *zap.Logger) *Client {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.DefaultCacheTTL <= 0 {
		cfg.DefaultCacheTTL = DefaultCacheTTL
	}
	if cfg.RefreshAhead <= 0 {
		cfg.RefreshAhead = DefaultRefreshAhead
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger.Named("TokenClient"),
		refreshCh:  make(chan refreshSpec, refreshQueueSize),
		pending:    make(map[string]struct{}),
		stopCh:     make(chan struct{}),
	}
	c.wg.Add(1)
	go c.refreshWorker()
	return c
}

// GetToken returns a machine token for the configured default scope and audience.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	return c.GetTokenFor(ctx, "", "")
}

// GetTokenFor returns a machine token for the given scope and audience,
// falling back to the configured defaults when blank. The dominant path is a
// zero-latency cache hit; within the refresh-ahead window the soon-to-expire
// value is returned immediately and a background refresh is scheduled so the
// next caller gets a fresh token.
func (c *Client) GetTokenFor(ctx context.Context, scope, audience string) (string, error) {
	if strings.TrimSpace(c.cfg.ClientID) == "" || strings.TrimSpace(c.cfg.ClientSecret) == "" {
		return "", fmt.Errorf("%w: client credentials are not configured", models.ErrConfiguration)
	}
	if scope == "" {
		scope = c.cfg.Scope
	}
	if audience == "" {
		audience = c.cfg.Audience
	}
	key := cacheKey(c.cfg.ClientID, scope, audience)

	value, ttl, err := c.cache.GetWithTTL(ctx, key)
	if err == nil {
		tokenCacheHitsTotal.Inc()
		if ttl > c.cfg.RefreshAhead {
			return value, nil
		}
		// Serve the stale value so the caller is never blocked; the refresh
		// happens off the request path.
		c.scheduleRefresh(key, scope, audience)
		return value, nil
	}
	if !errors.Is(err, models.ErrCacheMiss) {
		c.logger.Warn("Token cache unreachable, fetching synchronously", zap.Error(err))
	}
	tokenCacheMissesTotal.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the lock: callers queued behind an in-flight fetch must
	// not repeat the network call once it has populated the cache.
	if value, ttl, err := c.cache.GetWithTTL(ctx, key); err == nil && ttl > 0 {
		return value, nil
	}

	return c.fetchAndStore(ctx, key, scope, audience)
}

// Shutdown stops the refresh worker, waiting at most until ctx is done.
// Pending refreshes are abandoned, not awaited indefinitely.
func (c *Client) Shutdown(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchAndStore performs the network fetch and writes the result to the
// shared cache. Callers must hold c.mu.
func (c *Client) fetchAndStore(ctx context.Context, key, scope, audience string) (string, error) {
	token, expiresIn, err := c.fetch(ctx, scope, audience)
	if err != nil {
		tokenFetchErrorsTotal.Inc()
		return "", err
	}
	ttl := cacheTTL(expiresIn, c.cfg.DefaultCacheTTL, c.cfg.RefreshAhead)
	if err := c.cache.Set(ctx, key, token, ttl); err != nil {
		// The token itself is good; a failed cache write only costs the next
		// caller another fetch.
		c.logger.Warn("Failed to cache fetched token", zap.Error(err))
	}
	c.logger.Debug("Fetched and cached machine token",
		zap.Duration("expiresIn", expiresIn),
		zap.Duration("cacheTTL", ttl),
	)
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// fetch POSTs the client-credentials grant to the token endpoint.
// None of its failure modes are retried here; retry policy belongs to the caller.
func (c *Client) fetch(ctx context.Context, scope, audience string) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if scope != "" {
		form.Set("scope", scope)
	}
	if audience != "" {
		form.Set("audience", audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &models.TokenAcquisitionError{Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Token endpoint request failed", zap.Error(err))
		return "", 0, &models.TokenAcquisitionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Token endpoint returned non-2xx status",
			zap.Int("status", resp.StatusCode),
		)
		return "", 0, &models.TokenAcquisitionError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, &models.TokenAcquisitionError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if parsed.AccessToken == "" {
		return "", 0, &models.TokenAcquisitionError{Err: errors.New("token response missing access_token")}
	}
	return parsed.AccessToken, time.Duration(parsed.ExpiresIn) * time.Second, nil
}

// cacheKey builds the composite cache key. The layout is shared by every
// instance and must stay bit-exact; it never embeds secrets.
func cacheKey(clientID, scope, audience string) string {
	return fmt.Sprintf("internal:token:%s:%s:%s", clientID, scope, audience)
}

// cacheTTL picks how long a fetched token may be cached: the configured
// default, capped by the token's usable lifetime (expiry minus the
// refresh-ahead window). When the remaining result would itself sit inside the
// refresh-ahead window the token is too short-lived for refresh-ahead to help,
// so cache it for half its lifetime (floor 5s) instead. The cache never
// serves a token past its real expiry.
func cacheTTL(expiresIn, defaultTTL, refreshAhead time.Duration) time.Duration {
	if expiresIn <= 0 {
		return defaultTTL
	}
	ttl := expiresIn - refreshAhead
	if defaultTTL < ttl {
		ttl = defaultTTL
	}
	if ttl <= refreshAhead {
		half := expiresIn / 2
		if half < minCacheTTL {
			half = minCacheTTL
		}
		return half
	}
	return ttl
}
