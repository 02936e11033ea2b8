package provider

import (
	"log/slog"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// NoonesPathPrefix is the offer API prefix on the Noones gateway.
const NoonesPathPrefix = "noones/v1"

// NoonesClient is the Noones marketplace variant. Payment-method slugs are
// used as sent.
type NoonesClient struct {
	marketClient
}

// NewNoonesClient wraps a Noones offer gateway.
func NewNoonesClient(api gateway, userCountry string, logger *slog.Logger) *NoonesClient {
	return &NoonesClient{marketClient{
		provider:    domain.ProviderNoones,
		api:         api,
		userCountry: userCountry,
		slug:        passthroughSlug,
		logger:      logger.With(slog.String("component", "provider.noones")),
	}}
}

var _ Client = (*NoonesClient)(nil)
