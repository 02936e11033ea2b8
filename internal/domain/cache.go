package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TokenCache keeps the current bearer token per provider. Entries expire after
// a fixed ceiling that is independent of the token's own expiry.
type TokenCache interface {
	SetToken(ctx context.Context, provider Provider, token string) error
	GetToken(ctx context.Context, provider Provider) (string, error)
}

// PriceCache keeps short-lived market prices per currency pair.
type PriceCache interface {
	SetPrice(ctx context.Context, crypto CryptoCurrency, fiat FiatCurrency, price decimal.Decimal) error
	GetPrice(ctx context.Context, crypto CryptoCurrency, fiat FiatCurrency) (decimal.Decimal, error)
}

// ConfigCache keeps currency config values keyed by (provider, currency, name).
type ConfigCache interface {
	SetConfig(ctx context.Context, provider Provider, currency CryptoCurrency, name, value string) error
	GetConfig(ctx context.Context, provider Provider, currency CryptoCurrency, name string) (string, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter counts requests per key over a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
