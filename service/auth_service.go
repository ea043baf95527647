package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
	"github.com/rs/zerolog"
)

// Config tunes the authentication service
type Config struct {
	Domain       core.Domain
	ClientIDs    []string // Client ids allowed to log in
	ChallengeTTL time.Duration
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// DefaultConfig matches the lifetimes of the production API
func DefaultConfig() Config {
	return Config{
		Domain: core.Domain{
			Name:    "Pear Protocol",
			Version: "1",
			ChainID: 42161,
		},
		ClientIDs:    []string{"APITRADER"},
		ChallengeTTL: 5 * time.Minute,
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   30 * 24 * time.Hour, // 30 days
	}
}

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.Store
	eventPub  ports.EventPublisher
	logger    zerolog.Logger

	domain       core.Domain
	clientIDs    map[string]bool
	challengeTTL time.Duration
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg Config,
	tokenizer ports.Tokenizer,
	store ports.Store,
	eventPub ports.EventPublisher,
	logger zerolog.Logger,
) *AuthService {
	clientIDs := make(map[string]bool, len(cfg.ClientIDs))
	for _, id := range cfg.ClientIDs {
		clientIDs[id] = true
	}

	return &AuthService{
		tokenizer:    tokenizer,
		store:        store,
		eventPub:     eventPub,
		logger:       logger,
		domain:       cfg.Domain,
		clientIDs:    clientIDs,
		challengeTTL: cfg.ChallengeTTL,
		accessTTL:    cfg.AccessTTL,
		refreshTTL:   cfg.RefreshTTL,
	}
}

// Domain returns the EIP-712 domain challenges are issued under
func (s *AuthService) Domain() core.Domain {
	return s.domain
}

// AccessTTL returns the lifetime of issued access tokens
func (s *AuthService) AccessTTL() time.Duration {
	return s.accessTTL
}

// CreateChallenge issues an authentication challenge for address and client
func (s *AuthService) CreateChallenge(address, clientID string) (*core.Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	if !s.clientIDs[clientID] {
		return nil, core.ErrUnknownClient
	}

	now := time.Now()
	return &core.Challenge{
		Address:   common.HexToAddress(address).Hex(),
		ClientID:  clientID,
		Timestamp: now.Unix(),
		IssuedAt:  time.Unix(now.Unix(), 0),
	}, nil
}

// Login authenticates a wallet that signed the challenge issued at timestamp
func (s *AuthService) Login(ctx context.Context, address, clientID, signature string, timestamp int64) (string, string, error) {
	if !common.IsHexAddress(address) {
		return "", "", core.ErrInvalidAddress
	}
	if !s.clientIDs[clientID] {
		return "", "", core.ErrUnknownClient
	}

	if timestamp <= 0 {
		return "", "", core.ErrInvalidChallenge
	}
	issuedAt := time.Unix(timestamp, 0)
	if age := time.Since(issuedAt); age > s.challengeTTL || age < -time.Minute {
		return "", "", core.ErrTokenExpired
	}

	challenge := &core.Challenge{
		Address:   common.HexToAddress(address).Hex(),
		ClientID:  clientID,
		Timestamp: timestamp,
		IssuedAt:  issuedAt,
	}

	if err := s.tokenizer.VerifySignature(challenge, signature); err != nil {
		return "", "", fmt.Errorf("signature verification failed: %w", err)
	}

	// A signed challenge logs in once. The key outlives the window in which
	// the timestamp is accepted.
	claimed, err := s.store.InvalidateToken(ctx, loginKey(challenge), s.challengeTTL+time.Minute)
	if err != nil {
		return "", "", fmt.Errorf("failed to record login: %w", err)
	}
	if !claimed {
		return "", "", fmt.Errorf("challenge already used: %w", core.ErrInvalidChallenge)
	}

	return s.issue(challenge.Address, clientID)
}

// Refresh spends a refresh token and issues a new token pair. A refresh token
// can be spent once; the access token issued with it dies at the same time.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}
	claimed, err := s.revoke(ctx, session)
	if err != nil {
		return "", "", err
	}
	if !claimed {
		return "", "", core.ErrTokenInvalidated
	}

	s.logger.Debug().Str("address", session.Address).Str("client_id", session.ClientID).Msg("Session refreshed")
	return s.issue(session.Address, session.ClientID)
}

// Logout revokes a refresh token and announces it. Revoking twice is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}
	if _, err := s.revoke(ctx, session); err != nil {
		return err
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		s.logger.Warn().Err(err).Str("address", session.Address).Msg("Failed to publish logout event")
	}

	return nil
}

// ValidateAccessToken returns the session of a live access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	if session.RefreshID != "" {
		if err := s.checkRevoked(ctx, session.RefreshID); err != nil {
			return nil, err
		}
	}

	return session, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, refreshID string) error {
	revoked, err := s.store.IsTokenInvalidated(ctx, refreshID)
	if err != nil {
		return fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if revoked {
		return core.ErrTokenInvalidated
	}
	return nil
}

// revoke keeps the refresh id revoked for as long as the token would be valid.
// It reports false when another call revoked it first.
func (s *AuthService) revoke(ctx context.Context, session *core.Session) (bool, error) {
	claimed, err := s.store.InvalidateToken(ctx, session.RefreshID, time.Until(session.RefreshExpiry))
	if err != nil {
		return false, fmt.Errorf("failed to invalidate token: %w", err)
	}
	return claimed, nil
}

func loginKey(challenge *core.Challenge) string {
	return fmt.Sprintf("login:%s:%s:%d", strings.ToLower(challenge.Address), challenge.ClientID, challenge.Timestamp)
}

func (s *AuthService) issue(address, clientID string) (string, string, error) {
	now := time.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		Address:       address,
		ClientID:      clientID,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}
