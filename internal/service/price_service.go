package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/metrics"
)

// MarketPriceService is the market price oracle: cache first, then the
// quotes API. Prices are never served stale once the cache entry expires.
type MarketPriceService struct {
	cache   domain.PriceCache
	quotes  PriceQuoter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewMarketPriceService creates a MarketPriceService.
func NewMarketPriceService(cache domain.PriceCache, quotes PriceQuoter, m *metrics.Metrics, logger *slog.Logger) *MarketPriceService {
	return &MarketPriceService{
		cache:   cache,
		quotes:  quotes,
		metrics: m,
		logger:  logger.With(slog.String("component", "price_service")),
	}
}

// GetPrice returns the price of one unit of crypto in fiat.
func (s *MarketPriceService) GetPrice(ctx context.Context, crypto domain.CryptoCurrency, fiat domain.FiatCurrency) (decimal.Decimal, error) {
	price, err := s.cache.GetPrice(ctx, crypto, fiat)
	if err == nil {
		s.metrics.RecordPriceLookup(true)
		return price, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "price_service: cache get failed",
			slog.String("pair", string(crypto)+"/"+string(fiat)),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.RecordPriceLookup(false)

	price, err = s.quotes.GetPrice(ctx, string(crypto), string(fiat))
	if err != nil {
		return decimal.Zero, fmt.Errorf("price_service: unable to get market price %s/%s: %w", crypto, fiat, err)
	}

	if err := s.cache.SetPrice(ctx, crypto, fiat, price); err != nil {
		s.logger.WarnContext(ctx, "price_service: cache set failed",
			slog.String("pair", string(crypto)+"/"+string(fiat)),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.SetMarketPrice(string(crypto), string(fiat), price)

	s.logger.DebugContext(ctx, "price_service: fetched market price",
		slog.String("pair", string(crypto)+"/"+string(fiat)),
		slog.String("price", price.String()),
	)
	return price, nil
}
