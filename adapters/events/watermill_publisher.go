package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
)

const (
	// LogoutTopic carries LogoutEvent payloads
	LogoutTopic = "pear.logout"

	// AgentWalletCreatedTopic carries AgentWalletCreatedEvent payloads
	AgentWalletCreatedTopic = "pear.agent_wallet.created"
)

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// AgentWalletCreatedEvent is published when a user gets an agent wallet
type AgentWalletCreatedEvent struct {
	Owner   string `json:"owner"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, LogoutTopic, tokenID, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

// PublishAgentWalletCreated publishes an agent wallet creation event
func (p *WatermillPublisher) PublishAgentWalletCreated(ctx context.Context, wallet core.AgentWallet) error {
	return p.publish(ctx, AgentWalletCreatedTopic, watermill.NewUUID(), AgentWalletCreatedEvent{
		Owner:   wallet.Owner,
		Address: wallet.Address,
		Status:  wallet.Status,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, id string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
