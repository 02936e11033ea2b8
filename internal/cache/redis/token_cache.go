package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// TokenCache implements domain.TokenCache. The bearer token for a provider is
// stored at "auth_token:{provider}". The TTL is a fixed ceiling; Postgres stays
// the source of truth for token state.
type TokenCache struct {
	c   *Client
	ttl time.Duration
}

// NewTokenCache creates a TokenCache whose entries expire after ttl.
func NewTokenCache(c *Client, ttl time.Duration) *TokenCache {
	return &TokenCache{c: c, ttl: ttl}
}

func (tc *TokenCache) tokenKey(provider domain.Provider) string {
	return tc.c.key("auth_token", string(provider))
}

// SetToken stores the provider's bearer token.
func (tc *TokenCache) SetToken(ctx context.Context, provider domain.Provider, token string) error {
	if err := tc.c.rdb.Set(ctx, tc.tokenKey(provider), token, tc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set token %s: %w", provider, err)
	}
	return nil
}

// GetToken returns the cached bearer token or domain.ErrNotFound.
func (tc *TokenCache) GetToken(ctx context.Context, provider domain.Provider) (string, error) {
	tok, err := tc.c.rdb.Get(ctx, tc.tokenKey(provider)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis: get token %s: %w", provider, err)
	}
	if tok == "" {
		return "", domain.ErrNotFound
	}
	return tok, nil
}

var _ domain.TokenCache = (*TokenCache)(nil)
