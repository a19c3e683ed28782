package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:denylist:"

// TokenDenylistRepository remembers revoked access tokens until they expire.
type TokenDenylistRepository struct {
	client *redis.Client
}

// NewTokenDenylistRepository constructs the denylist. A nil client denies nothing.
func NewTokenDenylistRepository(client *redis.Client) *TokenDenylistRepository {
	return &TokenDenylistRepository{client: client}
}

// Deny marks the token id as revoked for ttl.
func (r *TokenDenylistRepository) Deny(ctx context.Context, jti string, ttl time.Duration) error {
	if r.client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, denylistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}
	return nil
}

// IsDenied reports whether the token id was revoked.
func (r *TokenDenylistRepository) IsDenied(ctx context.Context, jti string) (bool, error) {
	if r.client == nil || jti == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token denylist: %w", err)
	}
	return n > 0, nil
}
