package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/service"
)

// OfferService is what the offer endpoints need from the service layer.
type OfferService interface {
	FetchAndSave(ctx context.Context, p domain.Provider, offerID string, owner domain.OwnerType) (domain.Offer, error)
	List(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error)
	ChangeStatus(ctx context.Context, p domain.Provider, offerID string, status domain.OfferStatus) (domain.Offer, error)
	History(ctx context.Context, p domain.Provider, offerID string, opts domain.ListOpts) ([]domain.OfferHistory, error)
}

// OfferImprover reprices a single tracked offer on demand.
type OfferImprover interface {
	ImproveOfferByID(ctx context.Context, p domain.Provider, offerID string) (service.Outcome, error)
}

// OfferHandler serves the tracked-offer endpoints.
type OfferHandler struct {
	offers   OfferService
	improver OfferImprover
	logger   *slog.Logger
}

// NewOfferHandler creates an OfferHandler. improver may be nil, which
// disables the improve endpoint.
func NewOfferHandler(offers OfferService, improver OfferImprover, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, improver: improver, logger: logger}
}

// ListOffers returns tracked offers.
// GET /api/offers?owner_type=internal&status=active&provider=noones
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.OfferFilter

	if v := q.Get("owner_type"); v != "" {
		owner := domain.OwnerType(v)
		if owner != domain.OwnerInternal && owner != domain.OwnerCompetitor {
			writeError(w, http.StatusBadRequest, "owner_type must be internal or competitor")
			return
		}
		filter.OwnerType = owner
	}
	if v := q.Get("status"); v != "" {
		st, err := domain.ParseOfferStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = st
	}
	if v := q.Get("provider"); v != "" {
		p, err := domain.ParseProvider(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Provider = p
	}

	offers, err := h.offers.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, "list offers", err)
		return
	}

	views := make([]offerView, len(offers))
	for i, o := range offers {
		views[i] = toOfferView(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": views})
}

type createOfferRequest struct {
	Provider  string `json:"provider"`
	OfferID   string `json:"offer_id"`
	OwnerType string `json:"owner_type"`
}

// CreateOffer fetches an offer from its marketplace and starts tracking it.
// POST /api/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OfferID == "" {
		writeError(w, http.StatusBadRequest, "offer_id is required")
		return
	}
	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := domain.OwnerInternal
	if req.OwnerType != "" {
		owner = domain.OwnerType(req.OwnerType)
		if owner != domain.OwnerInternal && owner != domain.OwnerCompetitor {
			writeError(w, http.StatusBadRequest, "owner_type must be internal or competitor")
			return
		}
	}

	o, err := h.offers.FetchAndSave(r.Context(), p, req.OfferID, owner)
	if err != nil {
		writeServiceError(w, r, h.logger, "create offer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferView(o))
}

type updateOfferRequest struct {
	Status string `json:"status"`
}

// UpdateOffer changes the status of a tracked offer.
// PATCH /api/offers/{provider}/{offer_id}
func (h *OfferHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	p, id, err := offerKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateOfferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	st, err := domain.ParseOfferStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.offers.ChangeStatus(r.Context(), p, id, st)
	if err != nil {
		writeServiceError(w, r, h.logger, "update offer", err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferView(o))
}

// OfferHistory lists the reprices of a tracked offer, newest first.
// GET /api/offers/{provider}/{offer_id}/history?limit=50&offset=0
func (h *OfferHandler) OfferHistory(w http.ResponseWriter, r *http.Request) {
	p, id, err := offerKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.offers.History(r.Context(), p, id, parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "offer history", err)
		return
	}

	views := make([]historyView, len(records))
	for i, rec := range records {
		views[i] = toHistoryView(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": views})
}

// ImproveOffer reprices one tracked offer immediately.
// POST /api/offers/{provider}/{offer_id}/improve
func (h *OfferHandler) ImproveOffer(w http.ResponseWriter, r *http.Request) {
	if h.improver == nil {
		writeError(w, http.StatusNotImplemented, "repricing is not enabled")
		return
	}
	p, id, err := offerKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.improver.ImproveOfferByID(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, h.logger, "improve offer", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}
