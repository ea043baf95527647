package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps revoked token ids and agent wallets in Redis so several
// mock instances can share them
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store whose keys all start with "pear:"
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{
		client: client,
		prefix: "pear:",
	}
}

// InvalidateToken revokes tokenID unless it already is. Redis expires the key
// with the token; a token past its expiry has nothing left to revoke.
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) (bool, error) {
	if expiry <= 0 {
		return true, nil
	}
	claimed, err := s.client.SetNX(ctx, s.invalidatedKey(tokenID), 1, expiry).Result()
	if err != nil {
		return false, fmt.Errorf("failed to invalidate token: %w", err)
	}
	return claimed, nil
}

// IsTokenInvalidated reports whether tokenID has been revoked
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.invalidatedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return n > 0, nil
}

// CreateAgentWallet stores an agent wallet unless its owner already has one
func (s *RedisStore) CreateAgentWallet(ctx context.Context, wallet core.AgentWallet) error {
	payload, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal agent wallet: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.agentWalletKey(wallet.Owner), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store agent wallet: %w", err)
	}
	if !created {
		return core.ErrAgentWalletExists
	}

	return nil
}

// AgentWallet returns the agent wallet of owner
func (s *RedisStore) AgentWallet(ctx context.Context, owner string) (core.AgentWallet, error) {
	payload, err := s.client.Get(ctx, s.agentWalletKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.AgentWallet{}, core.ErrAgentWalletMissing
		}
		return core.AgentWallet{}, fmt.Errorf("failed to load agent wallet: %w", err)
	}

	var wallet core.AgentWallet
	if err := json.Unmarshal(payload, &wallet); err != nil {
		return core.AgentWallet{}, fmt.Errorf("failed to unmarshal agent wallet: %w", err)
	}

	return wallet, nil
}

func (s *RedisStore) agentWalletKey(owner string) string {
	return s.prefix + "agent-wallet:" + strings.ToLower(owner)
}

func (s *RedisStore) invalidatedKey(tokenID string) string {
	return s.prefix + "invalidated:" + tokenID
}
