package domain

import (
	"fmt"
	"time"
)

// Supported currency config names.
const (
	ConfigAmountToIncreaseOffer  = "amount_to_increase_offer"
	ConfigSearchPriceUpperMargin = "search_price_upper_margin"
	ConfigSearchPriceLowerMargin = "search_price_lower_margin"
	ConfigOwnerLastSeenMaxTime   = "owner_last_seen_max_time" // minutes
)

var supportedConfigNames = map[string]bool{
	ConfigAmountToIncreaseOffer:  true,
	ConfigSearchPriceUpperMargin: true,
	ConfigSearchPriceLowerMargin: true,
	ConfigOwnerLastSeenMaxTime:   true,
}

// ValidateConfigName returns ErrNotSupported for unknown config names.
func ValidateConfigName(name string) error {
	if !supportedConfigNames[name] {
		return fmt.Errorf("currency config %q: %w", name, ErrNotSupported)
	}
	return nil
}

// ConfigNames returns the supported config names.
func ConfigNames() []string {
	return []string{
		ConfigAmountToIncreaseOffer,
		ConfigSearchPriceUpperMargin,
		ConfigSearchPriceLowerMargin,
		ConfigOwnerLastSeenMaxTime,
	}
}

// CurrencyConfig is a named value scoped to a crypto currency and provider.
type CurrencyConfig struct {
	ID        int64
	Currency  CryptoCurrency
	Name      string
	Value     string
	Provider  Provider
	CreatedAt time.Time
	UpdatedAt time.Time
}
