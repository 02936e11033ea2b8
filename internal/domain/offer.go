package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies the P2P marketplace an offer or token belongs to.
type Provider string

const (
	ProviderNoones Provider = "noones"
	ProviderPaxful Provider = "paxful"
)

// ParseProvider converts a case-insensitive provider name into a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderNoones, ProviderPaxful:
		return p, nil
	default:
		return "", fmt.Errorf("provider %q: %w", s, ErrNotSupported)
	}
}

// OwnerType tells whether an offer belongs to the operator or to a competitor.
type OwnerType string

const (
	OwnerInternal   OwnerType = "internal"
	OwnerCompetitor OwnerType = "competitor"
)

// OfferStatus is the lifecycle state of a tracked offer.
type OfferStatus string

const (
	OfferStatusActive   OfferStatus = "active"
	OfferStatusInactive OfferStatus = "inactive"
)

// ParseOfferStatus converts a case-insensitive status name into an OfferStatus.
func ParseOfferStatus(s string) (OfferStatus, error) {
	switch st := OfferStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OfferStatusActive, OfferStatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("offer status %q: %w", s, ErrNotSupported)
	}
}

// OfferType is the trade direction of an offer.
type OfferType string

const (
	OfferTypeBuy  OfferType = "buy"
	OfferTypeSell OfferType = "sell"
)

// ParseOfferType converts a case-insensitive trade direction into an OfferType.
func ParseOfferType(s string) (OfferType, error) {
	switch t := OfferType(strings.ToLower(strings.TrimSpace(s))); t {
	case OfferTypeBuy, OfferTypeSell:
		return t, nil
	default:
		return "", fmt.Errorf("offer type %q: %w", s, ErrNotSupported)
	}
}

// CryptoCurrency is the asset being traded.
type CryptoCurrency string

const (
	CryptoBTC  CryptoCurrency = "BTC"
	CryptoUSDT CryptoCurrency = "USDT"
)

// ParseCryptoCurrency converts a currency code into a CryptoCurrency.
func ParseCryptoCurrency(s string) (CryptoCurrency, error) {
	switch c := CryptoCurrency(strings.ToUpper(strings.TrimSpace(s))); c {
	case CryptoBTC, CryptoUSDT:
		return c, nil
	default:
		return "", fmt.Errorf("crypto currency %q: %w", s, ErrNotSupported)
	}
}

// FiatCurrency is the currency the crypto asset is priced in.
type FiatCurrency string

const (
	FiatUSD FiatCurrency = "USD"
	FiatZAR FiatCurrency = "ZAR"
)

// ParseFiatCurrency converts a currency code into a FiatCurrency.
func ParseFiatCurrency(s string) (FiatCurrency, error) {
	switch c := FiatCurrency(strings.ToUpper(strings.TrimSpace(s))); c {
	case FiatUSD, FiatZAR:
		return c, nil
	default:
		return "", fmt.Errorf("fiat currency %q: %w", s, ErrNotSupported)
	}
}

// PaymentMethod is a marketplace payment-method slug, e.g. "bank-transfer".
type PaymentMethod string

const (
	PaymentBankTransfer         PaymentMethod = "bank-transfer"
	PaymentOtherBankTransfer    PaymentMethod = "other-bank-transfer"
	PaymentDomesticWireTransfer PaymentMethod = "domestic-wire-transfer"
)

// IsBankTransfer reports whether the method belongs to the bank-transfer
// family used when payment-method matching is relaxed.
func (p PaymentMethod) IsBankTransfer() bool {
	switch p {
	case PaymentBankTransfer, PaymentOtherBankTransfer, PaymentDomesticWireTransfer:
		return true
	}
	return false
}

// Offer is a marketplace listing tracked by the bot. Rows are never deleted;
// they are deactivated through Status instead.
type Offer struct {
	ID                 int64
	OfferID            string // provider-assigned offer hash
	OwnerType          OwnerType
	Status             OfferStatus
	Type               OfferType
	Currency           CryptoCurrency
	ConversionCurrency FiatCurrency
	PaymentMethod      PaymentMethod
	Provider           Provider
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OfferHistory is the append-only audit record of one confirmed reprice.
type OfferHistory struct {
	ID                int64
	OfferID           int64 // internal offer row
	CompetitorOfferID int64 // competitor offer row
	OriginalPrice     decimal.Decimal
	UpdatedPrice      decimal.Decimal
	CompetitorPrice   decimal.Decimal
	Provider          Provider
	CreatedAt         time.Time
}

// MarketOffer is an offer as reported live by a provider API. It is not
// persisted directly.
type MarketOffer struct {
	OfferID            string
	Type               OfferType
	Currency           CryptoCurrency
	ConversionCurrency FiatCurrency
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	LastSeen           *time.Time // nil when the provider omits it
}

// ToOffer converts a live offer into a tracked Offer row for the given owner.
func (m MarketOffer) ToOffer(provider Provider, owner OwnerType) Offer {
	return Offer{
		OfferID:            m.OfferID,
		OwnerType:          owner,
		Status:             OfferStatusActive,
		Type:               m.Type,
		Currency:           m.Currency,
		ConversionCurrency: m.ConversionCurrency,
		PaymentMethod:      m.PaymentMethod,
		Provider:           provider,
	}
}

// OfferSearchParameters drives a competitor search against a provider.
// PaymentMethod, MinPrice and MaxPrice are optional filters.
type OfferSearchParameters struct {
	Type               OfferType
	Currency           CryptoCurrency
	ConversionCurrency FiatCurrency
	PaymentMethod      PaymentMethod
	MinPrice           *decimal.Decimal
	MaxPrice           *decimal.Decimal
}
