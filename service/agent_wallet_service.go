package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
	"github.com/rs/zerolog"
)

// AgentWalletService manages the agent wallets of authenticated users
type AgentWalletService struct {
	store    ports.Store
	eventPub ports.EventPublisher
	logger   zerolog.Logger
}

// NewAgentWalletService creates a new agent wallet service
func NewAgentWalletService(store ports.Store, eventPub ports.EventPublisher, logger zerolog.Logger) *AgentWalletService {
	return &AgentWalletService{
		store:    store,
		eventPub: eventPub,
		logger:   logger,
	}
}

// Get returns the agent wallet of owner. A user without one gets a wallet with
// an empty address and status NOT_FOUND.
func (s *AgentWalletService) Get(ctx context.Context, owner string) (core.AgentWallet, error) {
	wallet, err := s.store.AgentWallet(ctx, owner)
	if errors.Is(err, core.ErrAgentWalletMissing) {
		return core.AgentWallet{Owner: owner, Status: core.AgentWalletNotFound}, nil
	}
	if err != nil {
		return core.AgentWallet{}, fmt.Errorf("failed to load agent wallet: %w", err)
	}

	return wallet, nil
}

// Create generates an agent wallet for owner. It fails with
// core.ErrAgentWalletExists when owner already has one.
func (s *AgentWalletService) Create(ctx context.Context, owner string) (core.AgentWallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return core.AgentWallet{}, fmt.Errorf("failed to generate agent key: %w", err)
	}

	wallet := core.AgentWallet{
		Owner:     owner,
		Address:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Status:    core.AgentWalletPendingApproval,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateAgentWallet(ctx, wallet); err != nil {
		return core.AgentWallet{}, err
	}

	if err := s.eventPub.PublishAgentWalletCreated(ctx, wallet); err != nil {
		s.logger.Warn().Err(err).Str("owner", owner).Msg("Failed to publish agent wallet event")
	}

	return wallet, nil
}
