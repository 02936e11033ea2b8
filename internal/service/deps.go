package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/provider"
)

// ClientLookup resolves the marketplace client for a provider.
// *provider.Registry satisfies it.
type ClientLookup interface {
	Client(p domain.Provider) (provider.Client, error)
}

// IssuerLookup resolves the token issuer for a provider.
// *provider.Registry satisfies it.
type IssuerLookup interface {
	Issuer(p domain.Provider) (provider.TokenIssuer, error)
}

// PriceQuoter fetches a live spot price. *coinmarketcap.Client satisfies it.
type PriceQuoter interface {
	GetPrice(ctx context.Context, symbol, convert string) (decimal.Decimal, error)
}

// PriceOracle returns the market price of a currency pair.
type PriceOracle interface {
	GetPrice(ctx context.Context, crypto domain.CryptoCurrency, fiat domain.FiatCurrency) (decimal.Decimal, error)
}

// ConfigReader reads numeric currency configs.
type ConfigReader interface {
	GetDecimal(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency, name string) (decimal.Decimal, error)
}

// Notifier delivers operator alerts. *notify.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

var (
	_ ClientLookup = (*provider.Registry)(nil)
	_ IssuerLookup = (*provider.Registry)(nil)
)
