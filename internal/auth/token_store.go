package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"couplerecipe/internal/cache"
)

const refreshTokenKeyPrefix = "refresh_token:"

// RefreshTokenData is the session payload stored alongside a refresh token.
type RefreshTokenData struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email,omitempty"`
	Anonymous  bool      `json:"anonymous"`
}

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

// TokenStore handles storage and retrieval of refresh tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Set(ctx, key, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error) {
	key := refreshTokenKeyPrefix + tokenID
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, fmt.Errorf("refresh token not found")
	}

	var data RefreshTokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal token data: %w", err)
	}
	return &data, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Delete(ctx, key)
}
