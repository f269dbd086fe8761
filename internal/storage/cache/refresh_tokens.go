package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"service-jobs-api/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const refreshTokenPrefix = "service_jobs:refresh:"

// RefreshTokenStore implements storage.RefreshTokenStore on Redis.
type RefreshTokenStore struct {
	client *redis.Client
}

// NewRefreshTokenStore creates a store on the given client.
func NewRefreshTokenStore(client *redis.Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

var _ storage.RefreshTokenStore = (*RefreshTokenStore)(nil)

func refreshTokenKey(token string) string {
	return refreshTokenPrefix + token
}

// Save stores token for userID with the given time to live.
func (s *RefreshTokenStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshTokenKey(token), userID.String(), ttl).Err(); err != nil {
		zap.S().Errorf("Error storing refresh token for user %s: %v", userID, err)
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes token.
func (s *RefreshTokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := s.client.GetDel(ctx, refreshTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, storage.ErrNotFound
		}
		zap.S().Errorf("Error consuming refresh token: %v", err)
		return uuid.Nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("refresh token holds invalid user id %q: %w", value, err)
	}
	return userID, nil
}

// Delete revokes token. Unknown tokens are ignored.
func (s *RefreshTokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, refreshTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
