package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPEMs(t *testing.T) (privPEM, pubPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	}))
	return privPEM, pubPEM
}

func TestLoadPrivate_SignAndVerifyRoundTrip(t *testing.T) {
	privPEM, _ := generateKeyPEMs(t)

	ks, err := LoadPrivate("primary", map[string]string{"primary": privPEM})
	require.NoError(t, err)
	assert.Equal(t, "primary", ks.ActiveKID())

	signingKey, kid, err := ks.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, "primary", kid)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = kid
	signed, err := token.SignedString(signingKey)
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, ks.Keyfunc)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestLoadPrivate_ActiveKIDMustExist(t *testing.T) {
	privPEM, _ := generateKeyPEMs(t)

	_, err := LoadPrivate("rotated", map[string]string{"primary": privPEM})
	require.Error(t, err)

	_, err = LoadPrivate("", map[string]string{"primary": privPEM})
	require.Error(t, err)
}

func TestLoadPublic_VerifiesByKID(t *testing.T) {
	privPEM1, pubPEM1 := generateKeyPEMs(t)
	_, pubPEM2 := generateKeyPEMs(t)

	signSet, err := LoadPrivate("k1", map[string]string{"k1": privPEM1})
	require.NoError(t, err)
	verifySet, err := LoadPublic(map[string]string{"k1": pubPEM1, "k2": pubPEM2})
	require.NoError(t, err)

	signingKey, kid, err := signSet.SigningKey()
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = kid
	signed, err := token.SignedString(signingKey)
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, verifySet.Keyfunc)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestKeyfunc_RejectsNonRSA(t *testing.T) {
	privPEM, _ := generateKeyPEMs(t)
	ks, err := LoadPrivate("primary", map[string]string{"primary": privPEM})
	require.NoError(t, err)

	// An HMAC-signed token must never verify, regardless of the kid header.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "mallory"})
	token.Header["kid"] = "primary"
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = jwt.Parse(signed, ks.Keyfunc)
	require.Error(t, err)
}

func TestKeyfunc_UnknownKID(t *testing.T) {
	privPEM, _ := generateKeyPEMs(t)
	otherPEM, _ := generateKeyPEMs(t)

	signSet, err := LoadPrivate("rogue", map[string]string{"rogue": otherPEM})
	require.NoError(t, err)
	verifySet, err := LoadPrivate("primary", map[string]string{"primary": privPEM})
	require.NoError(t, err)

	signingKey, kid, err := signSet.SigningKey()
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{Subject: "mallory"})
	token.Header["kid"] = kid
	signed, err := token.SignedString(signingKey)
	require.NoError(t, err)

	_, err = jwt.Parse(signed, verifySet.Keyfunc)
	require.Error(t, err)
}
