package service

import (
	"context"
	"testing"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

func TestMarketPriceService(t *testing.T) {
	ctx := context.Background()
	cache := &memPriceCache{}
	quotes := &fakeQuoter{price: dec("64000.12")}
	svc := NewMarketPriceService(cache, quotes, nil, testLogger())

	for i := 0; i < 2; i++ {
		got, err := svc.GetPrice(ctx, domain.CryptoBTC, domain.FiatUSD)
		if err != nil {
			t.Fatalf("GetPrice: %v", err)
		}
		if !got.Equal(dec("64000.12")) {
			t.Errorf("price = %s", got)
		}
	}
	if quotes.calls != 1 {
		t.Errorf("quote calls = %d, want 1", quotes.calls)
	}
}

func TestMarketPriceServiceError(t *testing.T) {
	cache := &memPriceCache{}
	quotes := &fakeQuoter{err: &domain.ClientError{Source: "coinmarketcap", Code: "401", Message: "unauthorized"}}
	svc := NewMarketPriceService(cache, quotes, nil, testLogger())

	_, err := svc.GetPrice(context.Background(), domain.CryptoUSDT, domain.FiatZAR)
	if !domain.IsClientError(err) {
		t.Fatalf("err = %v, want ClientError", err)
	}
	if len(cache.prices) != 0 {
		t.Errorf("failed lookup was cached")
	}
}
