package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// PriceCache implements domain.PriceCache. Each pair is stored as a decimal
// string at "market_price:{crypto}:{fiat}" with a short TTL.
type PriceCache struct {
	c   *Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache whose entries expire after ttl.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{c: c, ttl: ttl}
}

func (pc *PriceCache) priceKey(crypto domain.CryptoCurrency, fiat domain.FiatCurrency) string {
	return pc.c.key("market_price", string(crypto), string(fiat))
}

// SetPrice stores the latest market price for the pair.
func (pc *PriceCache) SetPrice(ctx context.Context, crypto domain.CryptoCurrency, fiat domain.FiatCurrency, price decimal.Decimal) error {
	if err := pc.c.rdb.Set(ctx, pc.priceKey(crypto, fiat), price.String(), pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set price %s/%s: %w", crypto, fiat, err)
	}
	return nil
}

// GetPrice returns the cached price for the pair or domain.ErrNotFound.
func (pc *PriceCache) GetPrice(ctx context.Context, crypto domain.CryptoCurrency, fiat domain.FiatCurrency) (decimal.Decimal, error) {
	raw, err := pc.c.rdb.Get(ctx, pc.priceKey(crypto, fiat)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("redis: get price %s/%s: %w", crypto, fiat, err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("redis: parse price %s/%s: %w", crypto, fiat, err)
	}
	return price, nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
