package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/platform/p2p"
)

// gateway is the raw offer API both marketplaces share. *p2p.APIClient
// satisfies it.
type gateway interface {
	GetOffer(ctx context.Context, offerHash string) (json.RawMessage, error)
	GetAllOffers(ctx context.Context, req p2p.SearchRequest) ([]json.RawMessage, error)
	UpdateOfferPrice(ctx context.Context, offerHash, price string) (p2p.UpdatePriceResult, error)
}

// marketClient holds the behaviour common to all marketplace variants.
type marketClient struct {
	provider    domain.Provider
	api         gateway
	userCountry string
	slug        func(string) domain.PaymentMethod
	logger      *slog.Logger
}

func (m *marketClient) Provider() domain.Provider { return m.provider }

func (m *marketClient) GetOffer(ctx context.Context, offerID string) (domain.MarketOffer, error) {
	raw, err := m.api.GetOffer(ctx, offerID)
	if err != nil {
		return domain.MarketOffer{}, fmt.Errorf("provider: unable to fetch offer %s: %w", offerID, err)
	}

	offer, err := m.decodeOffer(raw)
	if err != nil {
		m.logger.ErrorContext(ctx, "offer response is not valid",
			slog.String("offer_id", offerID),
			slog.String("raw", string(raw)),
			slog.String("error", err.Error()),
		)
		return domain.MarketOffer{}, fmt.Errorf("provider: unable to fetch offer %s: %w", offerID, err)
	}
	return offer, nil
}

func (m *marketClient) GetAllOffers(ctx context.Context, params domain.OfferSearchParameters) ([]domain.MarketOffer, error) {
	raws, err := m.api.GetAllOffers(ctx, p2p.SearchRequest{
		Type:               string(params.Type),
		CurrencyCode:       string(params.ConversionCurrency),
		CryptoCurrencyCode: string(params.Currency),
		UserCountry:        m.userCountry,
		PaymentMethod:      string(params.PaymentMethod),
		FiatFixedPriceMin:  params.MinPrice,
		FiatFixedPriceMax:  params.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: unable to fetch %s %s/%s offers: %w",
			params.Type, params.Currency, params.ConversionCurrency, err)
	}

	offers := make([]domain.MarketOffer, 0, len(raws))
	for i, raw := range raws {
		o, err := m.decodeOffer(raw)
		if err != nil {
			return nil, fmt.Errorf("provider: offers[%d] is not valid: %w", i, err)
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func (m *marketClient) UpdateOfferPrice(ctx context.Context, offerID string, price decimal.Decimal) (bool, error) {
	res, err := m.api.UpdateOfferPrice(ctx, offerID, price.String())
	if err != nil {
		return false, fmt.Errorf("provider: unable to update offer %s to %s: %w", offerID, price, err)
	}
	return res.Success, nil
}

// decodeOffer validates an offer payload. Unknown fields are ignored; a
// missing required field or an unsupported enum value fails the whole
// payload.
func (m *marketClient) decodeOffer(raw json.RawMessage) (domain.MarketOffer, error) {
	src := string(m.provider)

	var p p2p.OfferPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.MarketOffer{}, &domain.DataValidationError{Source: src, Reason: err.Error()}
	}

	missing := func(field string) error {
		return &domain.DataValidationError{Source: src, Field: field, Reason: "is required"}
	}
	switch {
	case p.OfferID == nil || *p.OfferID == "":
		return domain.MarketOffer{}, missing("offer_id")
	case p.OfferType == nil:
		return domain.MarketOffer{}, missing("offer_type")
	case p.CryptoCurrencyCode == nil:
		return domain.MarketOffer{}, missing("crypto_currency_code")
	case p.FiatCurrencyCode == nil:
		return domain.MarketOffer{}, missing("fiat_currency_code")
	case p.FiatPricePerCrypto == nil:
		return domain.MarketOffer{}, missing("fiat_price_per_crypto")
	case p.PaymentMethodSlug == nil:
		return domain.MarketOffer{}, missing("payment_method_slug")
	}

	offerType, err := domain.ParseOfferType(*p.OfferType)
	if err != nil {
		return domain.MarketOffer{}, &domain.DataValidationError{Source: src, Field: "offer_type", Reason: err.Error()}
	}
	crypto, err := domain.ParseCryptoCurrency(*p.CryptoCurrencyCode)
	if err != nil {
		return domain.MarketOffer{}, &domain.DataValidationError{Source: src, Field: "crypto_currency_code", Reason: err.Error()}
	}
	fiat, err := domain.ParseFiatCurrency(*p.FiatCurrencyCode)
	if err != nil {
		return domain.MarketOffer{}, &domain.DataValidationError{Source: src, Field: "fiat_currency_code", Reason: err.Error()}
	}

	offer := domain.MarketOffer{
		OfferID:            *p.OfferID,
		Type:               offerType,
		Currency:           crypto,
		ConversionCurrency: fiat,
		Price:              *p.FiatPricePerCrypto,
		PaymentMethod:      m.slug(*p.PaymentMethodSlug),
	}
	if p.LastSeenTimestamp != nil {
		seen := unixDecimal(*p.LastSeenTimestamp)
		offer.LastSeen = &seen
	}
	return offer, nil
}

// unixDecimal converts fractional unix seconds to a UTC time.
func unixDecimal(d decimal.Decimal) time.Time {
	sec := d.IntPart()
	nsec := d.Sub(decimal.NewFromInt(sec)).Shift(9).IntPart()
	return time.Unix(sec, nsec).UTC()
}

func passthroughSlug(s string) domain.PaymentMethod {
	return domain.PaymentMethod(strings.TrimSpace(s))
}
