package handler

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// revokeRequest carries an explicit token to revoke. When Token is empty the
// endpoint falls back to the bearer token of the request itself.
type revokeRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
