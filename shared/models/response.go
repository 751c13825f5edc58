package models

import (
	"encoding/json"
	"net/http"
)

// Result codes shared by all services. The A-series covers client-side
// conditions, the B-series server-side ones. The gateway relies on
// ErrCodeTokenRevoked being stable: clients receive the same envelope for
// "revoked" and "could not verify".
const (
	ErrCodeBadRequest       = "A0001"
	ErrCodeValidation       = "A0002"
	ErrCodeWrongCredentials = "A0210"
	ErrCodeUserNotFound     = "A0201"
	ErrCodeUserDisabled     = "A0202"
	ErrCodeTokenInvalid     = "A0230"
	ErrCodeTokenRevoked     = "A0231"
	ErrCodeTokenExpired     = "A0232"
	ErrCodeClientNotFound   = "A0240"
	ErrCodeInternal         = "B0001"
)

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendJSONError writes a standardized JSON error response.
func SendJSONError(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}

// SendJSONResponse writes a successful JSON response with the given status code.
func SendJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
