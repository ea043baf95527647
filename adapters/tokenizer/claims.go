package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid"` // ID of the refresh token
	ClientID  string `json:"cid,omitempty"`
}

// RefreshClaims combines standard claims with the client the session belongs to
type RefreshClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"cid,omitempty"`
}
