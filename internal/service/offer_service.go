package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// OfferService registers offers for tracking and manages their status.
type OfferService struct {
	offers  domain.OfferStore
	history domain.OfferHistoryStore
	clients ClientLookup
	audit   domain.AuditStore
	logger  *slog.Logger
}

// NewOfferService creates an OfferService. audit may be nil.
func NewOfferService(
	offers domain.OfferStore,
	history domain.OfferHistoryStore,
	clients ClientLookup,
	audit domain.AuditStore,
	logger *slog.Logger,
) *OfferService {
	return &OfferService{
		offers:  offers,
		history: history,
		clients: clients,
		audit:   audit,
		logger:  logger.With(slog.String("component", "offer_service")),
	}
}

// FetchAndSave fetches a live offer from the provider and starts tracking it
// with the given owner. An offer that is already tracked yields
// domain.ErrAlreadyExists.
func (s *OfferService) FetchAndSave(ctx context.Context, p domain.Provider, offerID string, owner domain.OwnerType) (domain.Offer, error) {
	exists, err := s.offers.Exists(ctx, p, offerID)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: check %s/%s: %w", p, offerID, err)
	}
	if exists {
		return domain.Offer{}, fmt.Errorf("offer_service: %s/%s: %w", p, offerID, domain.ErrAlreadyExists)
	}

	client, err := s.clients.Client(p)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: %w", err)
	}
	live, err := client.GetOffer(ctx, offerID)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: %w", err)
	}

	saved, err := s.offers.Create(ctx, live.ToOffer(p, owner))
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: save %s/%s: %w", p, offerID, err)
	}

	s.logger.InfoContext(ctx, "offer_service: saved offer",
		slog.String("provider", string(p)),
		slog.String("offer_id", offerID),
		slog.Int64("id", saved.ID),
		slog.String("owner", string(owner)),
	)
	return saved, nil
}

// List returns tracked offers matching filter.
func (s *OfferService) List(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	offers, err := s.offers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("offer_service: list: %w", err)
	}
	return offers, nil
}

// Get returns one tracked offer.
func (s *OfferService) Get(ctx context.Context, p domain.Provider, offerID string) (domain.Offer, error) {
	o, err := s.offers.Get(ctx, p, offerID)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: get %s/%s: %w", p, offerID, err)
	}
	return o, nil
}

// ChangeStatus activates or deactivates a tracked offer.
func (s *OfferService) ChangeStatus(ctx context.Context, p domain.Provider, offerID string, status domain.OfferStatus) (domain.Offer, error) {
	o, err := s.offers.UpdateStatus(ctx, p, offerID, status)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("offer_service: change status %s/%s: %w", p, offerID, err)
	}

	if s.audit != nil {
		if err := s.audit.Log(ctx, "offer.status_changed", map[string]any{
			"provider": string(p),
			"offer_id": offerID,
			"status":   string(status),
		}); err != nil {
			s.logger.WarnContext(ctx, "offer_service: audit log failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "offer_service: changed status",
		slog.String("provider", string(p)),
		slog.String("offer_id", offerID),
		slog.String("status", string(status)),
	)
	return o, nil
}

// History returns the reprice records of a tracked offer, newest first.
func (s *OfferService) History(ctx context.Context, p domain.Provider, offerID string, opts domain.ListOpts) ([]domain.OfferHistory, error) {
	o, err := s.offers.Get(ctx, p, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer_service: history %s/%s: %w", p, offerID, err)
	}
	records, err := s.history.ListByOffer(ctx, o.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("offer_service: history %s/%s: %w", p, offerID, err)
	}
	return records, nil
}
