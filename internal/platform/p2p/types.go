package p2p

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// statusSuccess is the envelope status of a successful API call.
const statusSuccess = "success"

// envelope is the wrapper every marketplace API response is sent in.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code    json.RawMessage `json:"code"` // number or string
	Message string          `json:"message"`
}

func (e *apiError) code() string {
	var s string
	if err := json.Unmarshal(e.Code, &s); err == nil {
		return s
	}
	return string(e.Code)
}

// TokenResponse is the oauth2 client-credentials response. Fields are
// pointers so missing keys can be told apart from zero values.
type TokenResponse struct {
	AccessToken *string `json:"access_token"`
	ExpiresIn   *int64  `json:"expires_in"`
}

// OfferPayload is one offer as returned by offer/get and offer/all. Unknown
// fields are ignored.
type OfferPayload struct {
	OfferID            *string          `json:"offer_id"`
	OfferType          *string          `json:"offer_type"`
	CryptoCurrencyCode *string          `json:"crypto_currency_code"`
	FiatCurrencyCode   *string          `json:"fiat_currency_code"`
	FiatPricePerCrypto *decimal.Decimal `json:"fiat_price_per_crypto"`
	PaymentMethodSlug  *string          `json:"payment_method_slug"`
	LastSeenTimestamp  *decimal.Decimal `json:"last_seen_timestamp"`
}

// offersPage is the data body of one offer/all page.
type offersPage struct {
	Offers []json.RawMessage `json:"offers"`
	Count  json.Number       `json:"count"`
}

// UpdatePriceResult is the data body of offer/update-price.
type UpdatePriceResult struct {
	Success bool `json:"success"`
}

// SearchRequest carries the offer/all filters. Optional fields are omitted
// from the form when empty or nil.
type SearchRequest struct {
	Type               string
	CurrencyCode       string // fiat
	CryptoCurrencyCode string
	UserCountry        string
	PaymentMethod      string
	FiatFixedPriceMin  *decimal.Decimal
	FiatFixedPriceMax  *decimal.Decimal
}
