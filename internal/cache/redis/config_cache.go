package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// ConfigCache implements domain.ConfigCache using one hash per provider and
// currency:
//
//	currency_config:{provider}:{currency} - field {name} holds the value
type ConfigCache struct {
	c   *Client
	ttl time.Duration
}

// NewConfigCache creates a ConfigCache whose hashes expire after ttl.
func NewConfigCache(c *Client, ttl time.Duration) *ConfigCache {
	return &ConfigCache{c: c, ttl: ttl}
}

func (cc *ConfigCache) configKey(provider domain.Provider, currency domain.CryptoCurrency) string {
	return cc.c.key("currency_config", string(provider), string(currency))
}

// SetConfig stores a config value and refreshes the hash TTL.
func (cc *ConfigCache) SetConfig(ctx context.Context, provider domain.Provider, currency domain.CryptoCurrency, name, value string) error {
	key := cc.configKey(provider, currency)

	pipe := cc.c.rdb.TxPipeline()
	pipe.HSet(ctx, key, name, value)
	if cc.ttl > 0 {
		pipe.Expire(ctx, key, cc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set config %s/%s/%s: %w", provider, currency, name, err)
	}
	return nil
}

// GetConfig returns a cached config value or domain.ErrNotFound.
func (cc *ConfigCache) GetConfig(ctx context.Context, provider domain.Provider, currency domain.CryptoCurrency, name string) (string, error) {
	val, err := cc.c.rdb.HGet(ctx, cc.configKey(provider, currency), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis: get config %s/%s/%s: %w", provider, currency, name, err)
	}
	return val, nil
}

var _ domain.ConfigCache = (*ConfigCache)(nil)
