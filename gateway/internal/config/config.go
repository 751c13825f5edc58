package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"token-platform/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the gateway configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Routes maps path prefixes to upstream base URLs as comma-separated
	// prefix=url pairs, e.g. "/api/v1/auth=http://auth:8081,/api/v1/users=http://users:8082".
	Routes string `envconfig:"ROUTES" required:"true"`

	// Redis (revocation store, read side)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Secret field WITHOUT an envconfig tag
	RedisPassword string

	// Revocation filter
	RevocationSkipPaths             string        `envconfig:"REVOCATION_SKIP_PATHS" default:"/health,/metrics,/api/v1/auth/login"`
	RevocationSkipClientCredentials bool          `envconfig:"REVOCATION_SKIP_CLIENT_CREDENTIALS" default:"true"`
	RevocationLookupTimeout         time.Duration `envconfig:"REVOCATION_LOOKUP_TIMEOUT" default:"2s"`

	// JWT verification keys, comma-separated kid=secretName pairs. Each named
	// secret holds a PEM-encoded RSA public key.
	JWTPublicKeys string `envconfig:"JWT_PUBLIC_KEYS" default:"primary=jwt_public_key"`

	// CORS Settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// GetRevocationSkipPaths splits the skip-path list into a slice.
func (c *Config) GetRevocationSkipPaths() []string {
	if c.RevocationSkipPaths == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.RevocationSkipPaths, " ", ""), ",")
}

// GetPublicKeyPEMs resolves the configured kid=secretName pairs into a map of
// kid to PEM contents.
func (c *Config) GetPublicKeyPEMs() (map[string]string, error) {
	pems := make(map[string]string)
	for _, pair := range strings.Split(c.JWTPublicKeys, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kid, secretName, found := strings.Cut(pair, "=")
		if !found || kid == "" || secretName == "" {
			return nil, fmt.Errorf("invalid JWT_PUBLIC_KEYS entry %q, expected kid=secretName", pair)
		}
		pem, err := utils.ReadSecret(secretName)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key secret %q for kid %q: %w", secretName, kid, err)
		}
		pems[kid] = pem
	}
	if len(pems) == 0 {
		return nil, fmt.Errorf("JWT_PUBLIC_KEYS resolved to no keys")
	}
	return pems, nil
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Optional secrets
	redisPass, err := utils.ReadSecret("redis_password")
	if err == nil {
		cfg.RedisPassword = redisPass
		log.Println("Redis password loaded from secret.")
	} else {
		log.Printf("Optional secret 'redis_password' not found or failed to read: %v. Assuming no password.", err)
	}

	log.Println("Configuration loaded successfully (secrets read from files).")
	return &cfg, nil
}
