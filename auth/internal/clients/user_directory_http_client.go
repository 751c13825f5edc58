package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"go.uber.org/zap"
)

// accountCacheTTL keeps directory lookups warm across a login burst without
// letting authority changes go unnoticed for long.
const accountCacheTTL = 60 * time.Second

// TokenProvider supplies the machine token attached to directory calls.
// Satisfied by *tokenclient.Client.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.UserDirectoryClient = (*UserDirectoryHTTPClient)(nil)

// UserDirectoryHTTPClient fetches user records from the upstream directory
// service, authenticating with a machine token from the acquisition client.
type UserDirectoryHTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedAccount
}

type cachedAccount struct {
	account   *interfaces.UserAccount
	fetchedAt time.Time
}

// NewUserDirectoryHTTPClient creates a new HTTP client for the user directory.
func NewUserDirectoryHTTPClient(baseURL string, tokens TokenProvider, logger *zap.Logger) *UserDirectoryHTTPClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &UserDirectoryHTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		tokens: tokens,
		logger: logger.Named("UserDirectoryClient"),
		cache:  make(map[string]cachedAccount),
	}
}

// GetUserByUsername fetches a user record, serving repeated lookups within a
// login burst from a short-lived memo cache.
func (c *UserDirectoryHTTPClient) GetUserByUsername(ctx context.Context, username string) (*interfaces.UserAccount, error) {
	log := c.logger.With(zap.String("username", username))

	c.mu.RLock()
	entry, ok := c.cache[username]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < accountCacheTTL {
		log.Debug("User record served from memo cache")
		return entry.account, nil
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		log.Error("Failed to obtain machine token for directory call", zap.Error(err))
		return nil, fmt.Errorf("failed to obtain machine token: %w", err)
	}

	endpointURL := c.baseURL + "/internal/users/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		log.Error("Failed to create directory request", zap.Error(err))
		return nil, fmt.Errorf("failed to create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute directory request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Debug("User not found in directory")
		return nil, models.ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("Directory returned non-OK status", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	var responsePayload struct {
		Data interfaces.UserAccount `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&responsePayload); err != nil {
		log.Error("Failed to decode directory response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	account := responsePayload.Data

	c.mu.Lock()
	c.cache[username] = cachedAccount{account: &account, fetchedAt: time.Now()}
	c.mu.Unlock()

	log.Debug("User record fetched from directory", zap.Uint64("userID", account.UserID))
	return &account, nil
}
