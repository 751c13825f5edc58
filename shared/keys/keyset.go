package keys

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet holds the platform signing keys indexed by key id. The auth service
// loads private keys and signs with the active one; the gateway loads only the
// public halves for verification.
type KeySet struct {
	activeKID string
	private   map[string]*rsa.PrivateKey
	public    map[string]*rsa.PublicKey
}

// LoadPrivate parses PEM-encoded RSA private keys and builds a KeySet that can
// both sign and verify. The active kid must be present in the map.
func LoadPrivate(activeKID string, pems map[string]string) (*KeySet, error) {
	if activeKID == "" {
		return nil, errors.New("active key id cannot be empty")
	}
	ks := &KeySet{
		activeKID: activeKID,
		private:   make(map[string]*rsa.PrivateKey, len(pems)),
		public:    make(map[string]*rsa.PublicKey, len(pems)),
	}
	for kid, pemData := range pems {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key %q: %w", kid, err)
		}
		ks.private[kid] = key
		ks.public[kid] = &key.PublicKey
	}
	if _, ok := ks.private[activeKID]; !ok {
		return nil, fmt.Errorf("active key id %q not present in key set", activeKID)
	}
	return ks, nil
}

// LoadPublic parses PEM-encoded RSA public keys and builds a verify-only KeySet.
func LoadPublic(pems map[string]string) (*KeySet, error) {
	if len(pems) == 0 {
		return nil, errors.New("key set cannot be empty")
	}
	ks := &KeySet{public: make(map[string]*rsa.PublicKey, len(pems))}
	for kid, pemData := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key %q: %w", kid, err)
		}
		ks.public[kid] = key
		// A single-key set verifies tokens without a kid header against that key.
		if ks.activeKID == "" {
			ks.activeKID = kid
		}
	}
	return ks, nil
}

// ActiveKID returns the key id used for signing.
func (ks *KeySet) ActiveKID() string { return ks.activeKID }

// SigningKey returns the active private key and its kid.
func (ks *KeySet) SigningKey() (*rsa.PrivateKey, string, error) {
	key, ok := ks.private[ks.activeKID]
	if !ok {
		return nil, "", errors.New("key set has no private keys")
	}
	return key, ks.activeKID, nil
}

// Keyfunc resolves the verification key for a token by its kid header.
// Only RSA signatures are accepted. A missing kid falls back to the active key
// so single-key deployments keep working.
func (ks *KeySet) Keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		kid = ks.activeKID
	}
	key, ok := ks.public[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}
