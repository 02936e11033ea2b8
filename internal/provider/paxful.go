package provider

import (
	"log/slog"
	"strings"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// PaxfulPathPrefix is the offer API prefix on the Paxful gateway.
const PaxfulPathPrefix = "paxful/v1"

// paxfulSlugs maps Paxful payment-method slugs that differ from the
// canonical names.
var paxfulSlugs = map[string]domain.PaymentMethod{
	"bank-transfers":          domain.PaymentBankTransfer,
	"local-bank-transfer":     domain.PaymentBankTransfer,
	"other-bank":              domain.PaymentOtherBankTransfer,
	"other-bank-transfers":    domain.PaymentOtherBankTransfer,
	"domestic-wire":           domain.PaymentDomesticWireTransfer,
	"domestic-wire-transfers": domain.PaymentDomesticWireTransfer,
	"wire-transfer":           domain.PaymentDomesticWireTransfer,
}

// PaxfulSlug normalises a Paxful payment-method slug. Unknown slugs are
// lower-cased and hyphenated but otherwise kept.
func PaxfulSlug(s string) domain.PaymentMethod {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	if pm, ok := paxfulSlugs[norm]; ok {
		return pm
	}
	return domain.PaymentMethod(norm)
}

// PaxfulClient is the Paxful marketplace variant.
type PaxfulClient struct {
	marketClient
}

// NewPaxfulClient wraps a Paxful offer gateway.
func NewPaxfulClient(api gateway, userCountry string, logger *slog.Logger) *PaxfulClient {
	return &PaxfulClient{marketClient{
		provider:    domain.ProviderPaxful,
		api:         api,
		userCountry: userCountry,
		slug:        PaxfulSlug,
		logger:      logger.With(slog.String("component", "provider.paxful")),
	}}
}

var _ Client = (*PaxfulClient)(nil)
