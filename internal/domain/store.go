package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OfferFilter narrows an offer listing. Zero-valued fields are ignored.
type OfferFilter struct {
	OwnerType OwnerType
	Status    OfferStatus
	Provider  Provider
}

// OfferStore persists tracked offers.
type OfferStore interface {
	Create(ctx context.Context, offer Offer) (Offer, error)
	Get(ctx context.Context, provider Provider, offerID string) (Offer, error)
	Exists(ctx context.Context, provider Provider, offerID string) (bool, error)
	List(ctx context.Context, filter OfferFilter) ([]Offer, error)
	UpdateStatus(ctx context.Context, provider Provider, offerID string, status OfferStatus) (Offer, error)
}

// OfferHistoryStore persists the append-only reprice audit trail.
type OfferHistoryStore interface {
	Create(ctx context.Context, h OfferHistory) (OfferHistory, error)
	ListByOffer(ctx context.Context, offerID int64, opts ListOpts) ([]OfferHistory, error)
	// ListBefore returns up to limit unarchived records created before the
	// cutoff, oldest first.
	ListBefore(ctx context.Context, before time.Time, limit int) ([]OfferHistory, error)
	MarkArchived(ctx context.Context, ids []int64) (int64, error)
}

// TokenStore persists provider bearer tokens.
type TokenStore interface {
	Create(ctx context.Context, t AuthenticationToken) (AuthenticationToken, error)
	// LatestActive returns the most recent active token for the provider or
	// ErrNotFound.
	LatestActive(ctx context.Context, provider Provider) (AuthenticationToken, error)
	Deactivate(ctx context.Context, id int64) error
}

// CurrencyConfigStore persists per-currency settings.
type CurrencyConfigStore interface {
	Upsert(ctx context.Context, cfg CurrencyConfig) (CurrencyConfig, error)
	Get(ctx context.Context, provider Provider, currency CryptoCurrency, name string) (CurrencyConfig, error)
	List(ctx context.Context) ([]CurrencyConfig, error)
}

// AuditEntry is one row of the operator audit log.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditFilter narrows an audit listing. EventPrefix matches whole event
// names ("config.set") as well as families ("offer.").
type AuditFilter struct {
	EventPrefix string
	ListOpts
}

// AuditStore records operator-visible changes such as config edits, offer
// status changes and confirmed reprices.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}
