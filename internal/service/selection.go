package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// SelectOptions narrows the candidate set before a competitor is chosen.
type SelectOptions struct {
	// ExcludeOfferID is the internal offer's own provider hash.
	ExcludeOfferID string
	// LastSeenMax drops candidates whose owner was last seen longer ago
	// than this. A zero window drops every candidate seen before Now.
	// Candidates without a last-seen time are kept.
	LastSeenMax time.Duration
	// BankTransferOnly keeps only bank-transfer-family payment methods.
	BankTransferOnly bool
	Now              time.Time
}

// SelectCompetitor picks the offer to undercut. Among candidates priced at or
// below the market price it takes the highest; when there are none it takes
// the lowest priced above market. Ties go to the earliest candidate. The
// second return is false when nothing qualifies.
func SelectCompetitor(candidates []domain.MarketOffer, market decimal.Decimal, opts SelectOptions) (domain.MarketOffer, bool) {
	var (
		below, above       domain.MarketOffer
		haveBelow, haveAbv bool
	)

	for _, c := range candidates {
		if !eligible(c, opts) {
			continue
		}
		if c.Price.LessThanOrEqual(market) {
			if !haveBelow || c.Price.GreaterThan(below.Price) {
				below, haveBelow = c, true
			}
			continue
		}
		if !haveAbv || c.Price.LessThan(above.Price) {
			above, haveAbv = c, true
		}
	}

	switch {
	case haveBelow:
		return below, true
	case haveAbv:
		return above, true
	default:
		return domain.MarketOffer{}, false
	}
}

func eligible(c domain.MarketOffer, opts SelectOptions) bool {
	if c.OfferID == opts.ExcludeOfferID {
		return false
	}
	if c.LastSeen != nil && opts.Now.Sub(*c.LastSeen) > opts.LastSeenMax {
		return false
	}
	if opts.BankTransferOnly && !c.PaymentMethod.IsBankTransfer() {
		return false
	}
	return true
}

// priceBand returns [market*(1-lower/100), market*(1+upper/100)].
func priceBand(market, lowerPct, upperPct decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	lo := market.Mul(decimal.NewFromInt(1).Sub(lowerPct.Div(hundred)))
	hi := market.Mul(decimal.NewFromInt(1).Add(upperPct.Div(hundred)))
	return lo, hi
}
