package ports

import (
	"context"

	"github.com/layer-3/pear/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishAgentWalletCreated(ctx context.Context, wallet core.AgentWallet) error
}
