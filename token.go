package pear

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenLifetime is how long the API keeps an access token valid
	AccessTokenLifetime = 15 * time.Minute

	// RefreshTokenLifetime is how long the API keeps a refresh token valid
	RefreshTokenLifetime = 30 * 24 * time.Hour
)

// TokenPair is the canonical form of a login or refresh response
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// wireTokenPair accepts both naming conventions the API has used
type wireTokenPair struct {
	AccessTokenSnake  string `json:"access_token"`
	AccessTokenCamel  string `json:"accessToken"`
	RefreshTokenSnake string `json:"refresh_token"`
	RefreshTokenCamel string `json:"refreshToken"`
	TokenTypeSnake    string `json:"token_type"`
	TokenTypeCamel    string `json:"tokenType"`
	ExpiresInSnake    int    `json:"expires_in"`
	ExpiresInCamel    int    `json:"expiresIn"`
}

// decodeTokenPair maps a token response body into a TokenPair. The refresh
// token may be empty; the access token may not.
func decodeTokenPair(body []byte) (TokenPair, error) {
	var w wireTokenPair
	if err := json.Unmarshal(body, &w); err != nil {
		return TokenPair{}, fmt.Errorf("%w: token response: %v", ErrEncoding, err)
	}

	pair := TokenPair{
		AccessToken:  firstNonEmpty(w.AccessTokenSnake, w.AccessTokenCamel),
		RefreshToken: firstNonEmpty(w.RefreshTokenSnake, w.RefreshTokenCamel),
		TokenType:    firstNonEmpty(w.TokenTypeSnake, w.TokenTypeCamel),
		ExpiresIn:    w.ExpiresInSnake,
	}
	if pair.ExpiresIn == 0 {
		pair.ExpiresIn = w.ExpiresInCamel
	}

	if pair.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("%w: token response carries no access token", ErrEncoding)
	}

	return pair, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. The client
// never holds the API's signing key, so this is for display and scheduling only.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
