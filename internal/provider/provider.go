// Package provider adapts the marketplace gateways to domain types. Each
// marketplace is a Client variant looked up through a Registry; lookups of
// unknown marketplaces fail with domain.ErrNotSupported.
package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// Client is the per-marketplace offer API.
type Client interface {
	// GetOffer returns one live offer.
	GetOffer(ctx context.Context, offerID string) (domain.MarketOffer, error)
	// GetAllOffers returns every offer matching params across all pages.
	GetAllOffers(ctx context.Context, params domain.OfferSearchParameters) ([]domain.MarketOffer, error)
	// UpdateOfferPrice reports false, with a nil error, when the
	// marketplace declined the update.
	UpdateOfferPrice(ctx context.Context, offerID string, price decimal.Decimal) (bool, error)
	Provider() domain.Provider
}

// TokenIssuer obtains fresh bearer tokens from a marketplace.
type TokenIssuer interface {
	IssueToken(ctx context.Context) (domain.IssuedToken, error)
	Provider() domain.Provider
}

// Registry maps marketplaces to their clients and token issuers.
type Registry struct {
	clients map[domain.Provider]Client
	issuers map[domain.Provider]TokenIssuer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[domain.Provider]Client),
		issuers: make(map[domain.Provider]TokenIssuer),
	}
}

// Register adds a client under its own Provider(), replacing any previous one.
func (r *Registry) Register(c Client) {
	r.clients[c.Provider()] = c
}

// RegisterIssuer adds a token issuer under its own Provider().
func (r *Registry) RegisterIssuer(i TokenIssuer) {
	r.issuers[i.Provider()] = i
}

// Client returns the client for p.
func (r *Registry) Client(p domain.Provider) (Client, error) {
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("provider %q client: %w", p, domain.ErrNotSupported)
	}
	return c, nil
}

// Issuer returns the token issuer for p.
func (r *Registry) Issuer(p domain.Provider) (TokenIssuer, error) {
	i, ok := r.issuers[p]
	if !ok {
		return nil, fmt.Errorf("provider %q token issuer: %w", p, domain.ErrNotSupported)
	}
	return i, nil
}

// Providers lists the marketplaces with a registered client.
func (r *Registry) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(r.clients))
	for _, p := range []domain.Provider{domain.ProviderNoones, domain.ProviderPaxful} {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
