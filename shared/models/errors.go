package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Configuration errors are fatal and never retried.
	ErrConfiguration  = errors.New("invalid configuration")
	ErrClientNotFound = errors.New("registered client not found")

	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")

	// Store Errors
	ErrCacheMiss                  = errors.New("cache miss")
	ErrRevocationStoreUnavailable = errors.New("revocation store unavailable")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)

// TokenAcquisitionError reports a failed client-credentials fetch from the
// authorization server. Status and Body are zero/empty for transport failures.
// The caller decides whether to retry; this error is never retried internally.
type TokenAcquisitionError struct {
	Status int
	Body   string
	Err    error
}

func (e *TokenAcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token acquisition failed: %v", e.Err)
	}
	return fmt.Sprintf("token acquisition failed: status %d: %s", e.Status, e.Body)
}

func (e *TokenAcquisitionError) Unwrap() error { return e.Err }
