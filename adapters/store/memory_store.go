package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	agentWallets      map[string]core.AgentWallet
	mu                sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.Store {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
		agentWallets:      make(map[string]core.AgentWallet),
	}
}

// InvalidateToken marks a token as invalidated until expiry has passed and
// reports whether this call did so. Expired entries are dropped lazily by
// IsTokenInvalidated.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if stored, exists := s.invalidatedTokens[tokenID]; exists && now.Before(stored) {
		return false, nil
	}
	s.invalidatedTokens[tokenID] = now.Add(expiry)

	return true, nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// expired revocations are forgotten
	if time.Now().After(expiryTime) {
		delete(s.invalidatedTokens, tokenID)
		return false, nil
	}

	return true, nil
}

// CreateAgentWallet stores an agent wallet for its owner
func (s *MemoryStore) CreateAgentWallet(ctx context.Context, wallet core.AgentWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(wallet.Owner)
	if _, exists := s.agentWallets[key]; exists {
		return core.ErrAgentWalletExists
	}
	s.agentWallets[key] = wallet

	return nil
}

// AgentWallet returns the agent wallet of owner
func (s *MemoryStore) AgentWallet(ctx context.Context, owner string) (core.AgentWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet, exists := s.agentWallets[strings.ToLower(owner)]
	if !exists {
		return core.AgentWallet{}, core.ErrAgentWalletMissing
	}

	return wallet, nil
}
