package pear

import (
	"context"
	"encoding/json"
)

// Authenticator is the wallet login surface of the API
type Authenticator interface {
	// RequestChallenge fetches the EIP-712 message to sign for the wallet
	RequestChallenge(ctx context.Context, clientID string) (*Challenge, error)

	// SignChallenge signs the challenge with the wallet key
	SignChallenge(challenge *Challenge) (string, error)

	// Authenticate exchanges a signed challenge for a token pair
	Authenticate(ctx context.Context, clientID, signature string, timestamp json.RawMessage) (*TokenPair, error)

	// Login runs the challenge, sign and authenticate steps in order
	Login(ctx context.Context, clientID string) (*TokenPair, error)

	// RefreshToken rotates the held refresh token
	RefreshToken(ctx context.Context) (*TokenPair, error)

	// Logout invalidates the held refresh token and forgets both tokens
	Logout(ctx context.Context) (json.RawMessage, error)
}

// AgentWallets is the agent wallet surface of the API
type AgentWallets interface {
	GetAgentWallet(ctx context.Context) (*AgentWallet, error)
	CreateAgentWallet(ctx context.Context) (*AgentWallet, error)
}

var (
	_ Authenticator = (*Client)(nil)
	_ AgentWallets  = (*Client)(nil)
)
