package ports

import (
	"context"
	"time"

	"github.com/layer-3/pear/core"
)

// Store interface for token invalidation and agent wallets
type Store interface {
	// InvalidateToken revokes tokenID for expiry. It reports false when the
	// token was already revoked, so at most one caller claims a given id.
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) (bool, error)
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)

	// CreateAgentWallet stores wallet unless its owner already has one, in
	// which case it returns core.ErrAgentWalletExists
	CreateAgentWallet(ctx context.Context, wallet core.AgentWallet) error
	// AgentWallet returns core.ErrAgentWalletMissing when owner has none
	AgentWallet(ctx context.Context, owner string) (core.AgentWallet, error)
}
