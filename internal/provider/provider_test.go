package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/platform/p2p"
)

type fakeGateway struct {
	offer     string
	offers    []string
	lastReq   p2p.SearchRequest
	updated   bool
	lastPrice string
	err       error
}

func (f *fakeGateway) GetOffer(context.Context, string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.offer), nil
}

func (f *fakeGateway) GetAllOffers(_ context.Context, req p2p.SearchRequest) ([]json.RawMessage, error) {
	f.lastReq = req
	out := make([]json.RawMessage, len(f.offers))
	for i, o := range f.offers {
		out[i] = json.RawMessage(o)
	}
	return out, f.err
}

func (f *fakeGateway) UpdateOfferPrice(_ context.Context, _ string, price string) (p2p.UpdatePriceResult, error) {
	f.lastPrice = price
	return p2p.UpdatePriceResult{Success: f.updated}, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validOffer = `{
	"offer_id": "abc",
	"offer_type": "sell",
	"crypto_currency_code": "BTC",
	"fiat_currency_code": "USD",
	"fiat_price_per_crypto": 64000.25,
	"payment_method_slug": "bank-transfer",
	"last_seen_timestamp": 1700000000.5,
	"offer_owner_username": "ignored"
}`

func TestGetOffer(t *testing.T) {
	c := NewNoonesClient(&fakeGateway{offer: validOffer}, "WORLDWIDE", testLogger())

	got, err := c.GetOffer(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if got.OfferID != "abc" || got.Type != domain.OfferTypeSell || got.Currency != domain.CryptoBTC || got.ConversionCurrency != domain.FiatUSD {
		t.Errorf("GetOffer = %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("64000.25")) {
		t.Errorf("Price = %s, want 64000.25", got.Price)
	}
	if got.PaymentMethod != domain.PaymentBankTransfer {
		t.Errorf("PaymentMethod = %q", got.PaymentMethod)
	}
	want := time.Unix(1700000000, 500000000).UTC()
	if got.LastSeen == nil || !got.LastSeen.Equal(want) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, want)
	}
}

func TestGetOfferValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing price", `{"offer_id":"a","offer_type":"sell","crypto_currency_code":"BTC","fiat_currency_code":"USD","payment_method_slug":"x"}`, "fiat_price_per_crypto"},
		{"missing id", `{"offer_type":"sell","crypto_currency_code":"BTC","fiat_currency_code":"USD","fiat_price_per_crypto":1,"payment_method_slug":"x"}`, "offer_id"},
		{"unsupported fiat", `{"offer_id":"a","offer_type":"sell","crypto_currency_code":"BTC","fiat_currency_code":"EUR","fiat_price_per_crypto":1,"payment_method_slug":"x"}`, "fiat_currency_code"},
		{"bad type", `{"offer_id":"a","offer_type":"swap","crypto_currency_code":"BTC","fiat_currency_code":"USD","fiat_price_per_crypto":1,"payment_method_slug":"x"}`, "offer_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewNoonesClient(&fakeGateway{offer: tt.body}, "", testLogger())
			_, err := c.GetOffer(context.Background(), "a")

			var ve *domain.DataValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("GetOffer error = %v, want *domain.DataValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestGetOfferClientErrorPreserved(t *testing.T) {
	cause := &domain.ClientError{Source: "noones", Code: "500"}
	c := NewNoonesClient(&fakeGateway{err: cause}, "", testLogger())

	_, err := c.GetOffer(context.Background(), "a")
	var ce *domain.ClientError
	if !errors.As(err, &ce) || ce != cause {
		t.Errorf("GetOffer error = %v, want wrapped client error", err)
	}
}

func TestGetAllOffersMapsParameters(t *testing.T) {
	gw := &fakeGateway{offers: []string{validOffer, validOffer}}
	c := NewPaxfulClient(gw, "ZA", testLogger())

	lo, hi := decimal.NewFromInt(95), decimal.NewFromInt(105)
	got, err := c.GetAllOffers(context.Background(), domain.OfferSearchParameters{
		Type:               domain.OfferTypeSell,
		Currency:           domain.CryptoUSDT,
		ConversionCurrency: domain.FiatZAR,
		MinPrice:           &lo,
		MaxPrice:           &hi,
	})
	if err != nil {
		t.Fatalf("GetAllOffers: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d offers, want 2", len(got))
	}
	req := gw.lastReq
	if req.Type != "sell" || req.CryptoCurrencyCode != "USDT" || req.CurrencyCode != "ZAR" || req.UserCountry != "ZA" {
		t.Errorf("SearchRequest = %+v", req)
	}
	if req.PaymentMethod != "" {
		t.Errorf("PaymentMethod = %q, want empty", req.PaymentMethod)
	}
	if !req.FiatFixedPriceMin.Equal(lo) || !req.FiatFixedPriceMax.Equal(hi) {
		t.Errorf("price band = %s..%s", req.FiatFixedPriceMin, req.FiatFixedPriceMax)
	}
}

func TestGetAllOffersFailsClosed(t *testing.T) {
	gw := &fakeGateway{offers: []string{validOffer, `{"offer_id":"b"}`}}
	c := NewNoonesClient(gw, "", testLogger())

	_, err := c.GetAllOffers(context.Background(), domain.OfferSearchParameters{})
	if !domain.IsValidationError(err) {
		t.Errorf("GetAllOffers error = %v, want validation error", err)
	}
}

func TestUpdateOfferPrice(t *testing.T) {
	gw := &fakeGateway{updated: false}
	c := NewNoonesClient(gw, "", testLogger())

	ok, err := c.UpdateOfferPrice(context.Background(), "abc", decimal.RequireFromString("101.50"))
	if err != nil {
		t.Fatalf("UpdateOfferPrice: %v", err)
	}
	if ok {
		t.Error("UpdateOfferPrice = true, want false")
	}
	if gw.lastPrice != "101.5" {
		t.Errorf("price sent = %q, want 101.5", gw.lastPrice)
	}
}

func TestPaxfulSlug(t *testing.T) {
	tests := []struct {
		in   string
		want domain.PaymentMethod
	}{
		{"bank-transfer", domain.PaymentBankTransfer},
		{"Other_Bank", domain.PaymentOtherBankTransfer},
		{"wire-transfer", domain.PaymentDomesticWireTransfer},
		{" PayPal ", "paypal"},
	}
	for _, tt := range tests {
		if got := PaxfulSlug(tt.in); got != tt.want {
			t.Errorf("PaxfulSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewNoonesClient(&fakeGateway{}, "", testLogger()))

	if _, err := r.Client(domain.ProviderNoones); err != nil {
		t.Errorf("Client(noones): %v", err)
	}
	if _, err := r.Client(domain.ProviderPaxful); !errors.Is(err, domain.ErrNotSupported) {
		t.Errorf("Client(paxful) error = %v, want ErrNotSupported", err)
	}
	if _, err := r.Issuer(domain.ProviderNoones); !errors.Is(err, domain.ErrNotSupported) {
		t.Errorf("Issuer(noones) error = %v, want ErrNotSupported", err)
	}
	if got := r.Providers(); len(got) != 1 || got[0] != domain.ProviderNoones {
		t.Errorf("Providers() = %v", got)
	}
}

type fakeTokenEndpoint struct {
	resp p2p.TokenResponse
	err  error
}

func (f fakeTokenEndpoint) CreateToken(context.Context) (p2p.TokenResponse, error) {
	return f.resp, f.err
}

func TestIssuer(t *testing.T) {
	tok := "abc"
	ttl := int64(3600)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	i := NewIssuer(domain.ProviderNoones, fakeTokenEndpoint{resp: p2p.TokenResponse{AccessToken: &tok, ExpiresIn: &ttl}})
	i.now = func() time.Time { return now }

	got, err := i.IssueToken(context.Background())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if got.Token != "abc" || !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("IssueToken = %+v", got)
	}

	i = NewIssuer(domain.ProviderNoones, fakeTokenEndpoint{resp: p2p.TokenResponse{AccessToken: &tok}})
	if _, err := i.IssueToken(context.Background()); !domain.IsValidationError(err) {
		t.Errorf("IssueToken without expires_in error = %v, want validation error", err)
	}
}
