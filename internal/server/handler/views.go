package handler

import (
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

type offerView struct {
	ID                 int64     `json:"id"`
	OfferID            string    `json:"offer_id"`
	OwnerType          string    `json:"owner_type"`
	Status             string    `json:"status"`
	Type               string    `json:"type"`
	Currency           string    `json:"currency"`
	ConversionCurrency string    `json:"conversion_currency"`
	PaymentMethod      string    `json:"payment_method"`
	Provider           string    `json:"provider"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toOfferView(o domain.Offer) offerView {
	return offerView{
		ID:                 o.ID,
		OfferID:            o.OfferID,
		OwnerType:          string(o.OwnerType),
		Status:             string(o.Status),
		Type:               string(o.Type),
		Currency:           string(o.Currency),
		ConversionCurrency: string(o.ConversionCurrency),
		PaymentMethod:      string(o.PaymentMethod),
		Provider:           string(o.Provider),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

type historyView struct {
	ID                int64     `json:"id"`
	OfferID           int64     `json:"offer_id"`
	CompetitorOfferID int64     `json:"competitor_offer_id"`
	OriginalPrice     string    `json:"original_price"`
	UpdatedPrice      string    `json:"updated_price"`
	CompetitorPrice   string    `json:"competitor_price"`
	Provider          string    `json:"provider"`
	CreatedAt         time.Time `json:"created_at"`
}

func toHistoryView(h domain.OfferHistory) historyView {
	return historyView{
		ID:                h.ID,
		OfferID:           h.OfferID,
		CompetitorOfferID: h.CompetitorOfferID,
		OriginalPrice:     h.OriginalPrice.String(),
		UpdatedPrice:      h.UpdatedPrice.String(),
		CompetitorPrice:   h.CompetitorPrice.String(),
		Provider:          string(h.Provider),
		CreatedAt:         h.CreatedAt,
	}
}

type configView struct {
	ID        int64     `json:"id"`
	Provider  string    `json:"provider"`
	Currency  string    `json:"currency"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toConfigView(c domain.CurrencyConfig) configView {
	return configView{
		ID:        c.ID,
		Provider:  string(c.Provider),
		Currency:  string(c.Currency),
		Name:      c.Name,
		Value:     c.Value,
		UpdatedAt: c.UpdatedAt,
	}
}
