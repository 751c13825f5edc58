package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-platform/shared/interfaces"
	"token-platform/shared/keys"
	"token-platform/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// userStatusActive is the directory status value of an enabled account.
const userStatusActive = 1

// MintConfig holds the settings of the direct-mint path.
type MintConfig struct {
	Issuer   string
	Audience string
	// InternalUserClientID designates the registered client whose configured
	// access-token lifetime bounds minted user tokens. Empty means unset.
	InternalUserClientID string
	// DefaultTTL applies when no internal-user client is configured.
	DefaultTTL time.Duration
}

// TokenService mints signed user JWTs for the password-based login path,
// independent of the standard OAuth2 issuance endpoint.
type TokenService struct {
	cfg       MintConfig
	directory interfaces.UserDirectoryClient
	clients   interfaces.RegisteredClientStore
	enricher  *ClaimsEnricher
	keySet    *keys.KeySet
	logger    *zap.Logger
}

// NewTokenService creates a new TokenService.
func NewTokenService(
	cfg MintConfig,
	directory interfaces.UserDirectoryClient,
	clients interfaces.RegisteredClientStore,
	enricher *ClaimsEnricher,
	keySet *keys.KeySet,
	logger *zap.Logger,
) *TokenService {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 2 * time.Hour
	}
	return &TokenService{
		cfg:       cfg,
		directory: directory,
		clients:   clients,
		enricher:  enricher,
		keySet:    keySet,
		logger:    logger.Named("TokenService"),
	}
}

// Login authenticates a user by password and mints a signed token for them.
func (s *TokenService) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	account, err := s.directory.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Same answer as a wrong password, account existence stays private.
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to resolve user for login: %w", err)
	}
	if account.Status != userStatusActive {
		s.logger.Warn("Login attempt for disabled account", zap.String("username", username))
		return nil, models.ErrUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, ttl, err := s.Mint(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.TokenDetails{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

// Mint synthesizes a signed JWT for username using the active signing key.
// Standard claims (iss, sub, aud, iat, exp, jti) plus the enrichment claims.
func (s *TokenService) Mint(ctx context.Context, username string) (string, time.Duration, error) {
	ttl, err := s.resolveTokenTTL(ctx)
	if err != nil {
		return "", 0, err
	}

	now := time.Now()
	claims := &models.Claims{
		GrantType: models.GrantPassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   username,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	s.enricher.Enrich(ctx, claims, models.GrantPassword, username)

	signingKey, kid, err := s.keySet.SigningKey()
	if err != nil {
		return "", 0, fmt.Errorf("%w: no signing key available: %v", models.ErrConfiguration, err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign user token: %w", err)
	}

	userTokensMintedTotal.Inc()
	s.logger.Info("User token minted",
		zap.String("username", username),
		zap.String("jti", claims.ID),
		zap.Duration("ttl", ttl),
	)
	return signed, ttl, nil
}

// resolveTokenTTL picks the minted token lifetime. When an internal-user
// client id is configured its registered access-token lifetime wins, and a
// missing registration is a fatal configuration error: downstream routes
// enforce a scope granted only by that client, silently falling back would
// mint tokens those routes reject.
func (s *TokenService) resolveTokenTTL(ctx context.Context) (time.Duration, error) {
	if s.cfg.InternalUserClientID == "" {
		return s.cfg.DefaultTTL, nil
	}
	client, err := s.clients.GetByClientID(ctx, s.cfg.InternalUserClientID)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			return 0, fmt.Errorf("%w: internal user client %q is not registered", models.ErrConfiguration, s.cfg.InternalUserClientID)
		}
		return 0, fmt.Errorf("failed to resolve internal user client: %w", err)
	}
	if client.AccessTokenTTL <= 0 {
		return s.cfg.DefaultTTL, nil
	}
	return client.AccessTokenTTL, nil
}
