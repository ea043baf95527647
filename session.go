package pear

import (
	"sync"
	"time"
)

// Session holds the token pair of one wallet. It starts empty, is filled by a
// successful login, updated in place by a refresh and wiped by logout. It is
// never written to disk.
type Session struct {
	mu           sync.RWMutex
	address      string
	accessToken  string
	refreshToken string
}

// NewSession creates an empty session for address
func NewSession(address string) *Session {
	return &Session{address: address}
}

// Address returns the wallet address the session belongs to
func (s *Session) Address() string {
	return s.address
}

// Tokens returns the currently held token pair
func (s *Session) Tokens() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return TokenPair{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	}
}

// AccessToken returns the held access token, or an empty string
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the held refresh token, or an empty string
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Authenticated reports whether an access token is held
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Set replaces both tokens
func (s *Session) Set(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
}

// Rotate stores the result of a refresh. An empty refresh token in pair keeps
// the current one.
func (s *Session) Rotate(pair TokenPair) TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		s.refreshToken = pair.RefreshToken
	}
	pair.RefreshToken = s.refreshToken

	return pair
}

// Clear forgets both tokens
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.refreshToken = ""
}

// AccessTokenExpiry returns the exp claim of the held access token, if it has one
func (s *Session) AccessTokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.AccessToken())
}
