package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/metrics"
	"github.com/alanyoungcy/offerbot/internal/notify"
)

// Outcome is how a single reprice attempt ended without an error.
type Outcome string

const (
	OutcomeNoCompetitor Outcome = "no_competitor"
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomeNotConfirmed Outcome = "not_confirmed"
	OutcomeUpdated      Outcome = "updated"
)

// RepricerConfig holds engine-wide repricing switches.
type RepricerConfig struct {
	// SearchAllBankPaymentMethods searches without a payment-method filter and
	// then keeps only bank-transfer-family competitors.
	SearchAllBankPaymentMethods bool
}

// Repricer keeps internal offers just ahead of the best comparable
// competitor.
type Repricer struct {
	clients  ClientLookup
	offers   domain.OfferStore
	history  domain.OfferHistoryStore
	prices   PriceOracle
	configs  ConfigReader
	notifier Notifier
	audit    domain.AuditStore
	cfg      RepricerConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewRepricer creates a Repricer. notifier and audit may be nil.
func NewRepricer(
	clients ClientLookup,
	offers domain.OfferStore,
	history domain.OfferHistoryStore,
	prices PriceOracle,
	configs ConfigReader,
	notifier Notifier,
	audit domain.AuditStore,
	cfg RepricerConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Repricer {
	return &Repricer{
		clients:  clients,
		offers:   offers,
		history:  history,
		prices:   prices,
		configs:  configs,
		notifier: notifier,
		audit:    audit,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With(slog.String("component", "repricer")),
		now:      time.Now,
	}
}

// ImproveAllActiveOffers reprices every active internal offer of provider p
// one after another. A failing offer is logged, reported and skipped; only a
// failure to list the offers is returned.
func (r *Repricer) ImproveAllActiveOffers(ctx context.Context, p domain.Provider) error {
	start := r.now()

	offers, err := r.offers.List(ctx, domain.OfferFilter{
		OwnerType: domain.OwnerInternal,
		Status:    domain.OfferStatusActive,
		Provider:  p,
	})
	if err != nil {
		return fmt.Errorf("repricer: list %s offers: %w", p, err)
	}

	var updated, failed int
	for _, o := range offers {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := r.ImproveOffer(ctx, o)
		if err != nil {
			failed++
			r.reportFailure(ctx, o, err)
			continue
		}
		if outcome == OutcomeUpdated {
			updated++
		}
	}

	r.metrics.ObserveBatch(string(p), r.now().Sub(start).Seconds())
	r.logger.InfoContext(ctx, "repricer: batch complete",
		slog.String("provider", string(p)),
		slog.Int("offers", len(offers)),
		slog.Int("updated", updated),
		slog.Int("failed", failed),
	)
	return nil
}

// ImproveOfferByID loads a tracked offer and reprices it.
func (r *Repricer) ImproveOfferByID(ctx context.Context, p domain.Provider, offerID string) (Outcome, error) {
	o, err := r.offers.Get(ctx, p, offerID)
	if err != nil {
		return "", fmt.Errorf("repricer: load %s/%s: %w", p, offerID, err)
	}
	return r.ImproveOffer(ctx, o)
}

// ImproveOffer reprices one internal offer against its best competitor.
func (r *Repricer) ImproveOffer(ctx context.Context, o domain.Offer) (Outcome, error) {
	log := r.logger.With(
		slog.String("provider", string(o.Provider)),
		slog.String("offer_id", o.OfferID),
	)

	client, err := r.clients.Client(o.Provider)
	if err != nil {
		return "", fmt.Errorf("repricer: %w", err)
	}

	live, err := client.GetOffer(ctx, o.OfferID)
	if err != nil {
		return "", fmt.Errorf("repricer: %w", err)
	}

	market, err := r.prices.GetPrice(ctx, live.Currency, live.ConversionCurrency)
	if err != nil {
		return "", fmt.Errorf("repricer: %w", err)
	}

	settings, err := r.loadSettings(ctx, o.Provider, live.Currency)
	if err != nil {
		return "", err
	}

	lo, hi := priceBand(market, settings.lowerMargin, settings.upperMargin)
	params := domain.OfferSearchParameters{
		Type:               live.Type,
		Currency:           live.Currency,
		ConversionCurrency: live.ConversionCurrency,
		MinPrice:           &lo,
		MaxPrice:           &hi,
	}
	if !r.cfg.SearchAllBankPaymentMethods {
		params.PaymentMethod = live.PaymentMethod
	}

	candidates, err := client.GetAllOffers(ctx, params)
	if err != nil {
		return "", fmt.Errorf("repricer: search competitors for %s: %w", o.OfferID, err)
	}

	competitor, ok := SelectCompetitor(candidates, market, SelectOptions{
		ExcludeOfferID:   live.OfferID,
		LastSeenMax:      settings.lastSeenMax,
		BankTransferOnly: r.cfg.SearchAllBankPaymentMethods,
		Now:              r.now(),
	})
	if !ok {
		log.InfoContext(ctx, "repricer: no competitor found",
			slog.Int("candidates", len(candidates)),
			slog.String("market_price", market.String()),
		)
		return r.finish(o.Provider, OutcomeNoCompetitor), nil
	}

	newPrice := competitor.Price.Add(settings.increase)
	if newPrice.Equal(live.Price) {
		log.DebugContext(ctx, "repricer: price unchanged", slog.String("price", newPrice.String()))
		return r.finish(o.Provider, OutcomeUnchanged), nil
	}

	confirmed, err := client.UpdateOfferPrice(ctx, o.OfferID, newPrice)
	if err != nil {
		return "", fmt.Errorf("repricer: update price of %s: %w", o.OfferID, err)
	}
	if !confirmed {
		log.WarnContext(ctx, "repricer: price update not confirmed", slog.String("price", newPrice.String()))
		return r.finish(o.Provider, OutcomeNotConfirmed), nil
	}

	if err := r.record(ctx, o, live.Price, newPrice, competitor); err != nil {
		return "", err
	}

	log.InfoContext(ctx, "repricer: offer repriced",
		slog.String("original_price", live.Price.String()),
		slog.String("updated_price", newPrice.String()),
		slog.String("competitor_offer_id", competitor.OfferID),
		slog.String("competitor_price", competitor.Price.String()),
	)
	return r.finish(o.Provider, OutcomeUpdated), nil
}

type repriceSettings struct {
	increase    decimal.Decimal
	lowerMargin decimal.Decimal
	upperMargin decimal.Decimal
	lastSeenMax time.Duration
}

func (r *Repricer) loadSettings(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency) (repriceSettings, error) {
	var s repriceSettings
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{domain.ConfigAmountToIncreaseOffer, &s.increase},
		{domain.ConfigSearchPriceLowerMargin, &s.lowerMargin},
		{domain.ConfigSearchPriceUpperMargin, &s.upperMargin},
	}
	for _, f := range fields {
		v, err := r.configs.GetDecimal(ctx, p, currency, f.name)
		if err != nil {
			return s, fmt.Errorf("repricer: %w", err)
		}
		*f.dst = v
	}

	minutes, err := r.configs.GetDecimal(ctx, p, currency, domain.ConfigOwnerLastSeenMaxTime)
	if err != nil {
		return s, fmt.Errorf("repricer: %w", err)
	}
	s.lastSeenMax = time.Duration(minutes.Mul(decimal.NewFromInt(int64(time.Minute))).IntPart())
	return s, nil
}

// record persists the competitor offer when it is not tracked yet and appends
// the history row for a confirmed reprice.
func (r *Repricer) record(ctx context.Context, o domain.Offer, original, updated decimal.Decimal, competitor domain.MarketOffer) error {
	comp, err := r.offers.Get(ctx, o.Provider, competitor.OfferID)
	if errors.Is(err, domain.ErrNotFound) {
		comp, err = r.offers.Create(ctx, competitor.ToOffer(o.Provider, domain.OwnerCompetitor))
		if errors.Is(err, domain.ErrAlreadyExists) {
			comp, err = r.offers.Get(ctx, o.Provider, competitor.OfferID)
		}
	}
	if err != nil {
		return fmt.Errorf("repricer: persist competitor %s: %w", competitor.OfferID, err)
	}

	h, err := r.history.Create(ctx, domain.OfferHistory{
		OfferID:           o.ID,
		CompetitorOfferID: comp.ID,
		OriginalPrice:     original,
		UpdatedPrice:      updated,
		CompetitorPrice:   competitor.Price,
		Provider:          o.Provider,
	})
	if err != nil {
		return fmt.Errorf("repricer: record history for %s: %w", o.OfferID, err)
	}

	if r.audit != nil {
		if err := r.audit.Log(ctx, "offer.repriced", map[string]any{
			"history_id":       h.ID,
			"provider":         string(o.Provider),
			"offer_id":         o.OfferID,
			"original_price":   original.String(),
			"updated_price":    updated.String(),
			"competitor_offer": competitor.OfferID,
		}); err != nil {
			r.logger.WarnContext(ctx, "repricer: audit log failed", slog.String("error", err.Error()))
		}
	}
	if r.notifier != nil {
		msg := fmt.Sprintf("%s offer %s repriced %s -> %s (competitor %s at %s)",
			o.Provider, o.OfferID, original, updated, competitor.OfferID, competitor.Price)
		if err := r.notifier.Notify(ctx, notify.EventOfferRepriced, "Offer repriced", msg); err != nil {
			r.logger.WarnContext(ctx, "repricer: notify failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *Repricer) finish(p domain.Provider, outcome Outcome) Outcome {
	r.metrics.RecordReprice(string(p), string(outcome))
	return outcome
}

func (r *Repricer) reportFailure(ctx context.Context, o domain.Offer, err error) {
	r.metrics.RecordRepriceError(string(o.Provider))
	r.logger.ErrorContext(ctx, "repricer: offer failed",
		slog.String("provider", string(o.Provider)),
		slog.String("offer_id", o.OfferID),
		slog.String("error", err.Error()),
	)
	if r.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Failed to improve %s offer %s: %v", o.Provider, o.OfferID, err)
	if nerr := r.notifier.Notify(ctx, notify.EventRepricerError, "Offer improvement failed", msg); nerr != nil {
		r.logger.WarnContext(ctx, "repricer: notify failed", slog.String("error", nerr.Error()))
	}
}
