package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// AuditHandler serves the operator audit log.
type AuditHandler struct {
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

type auditView struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListAudit returns audit entries, newest first.
// GET /api/audit?event=offer.&since=2026-01-02T15:04:05Z&limit=50&offset=0
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		EventPrefix: q.Get("event"),
		ListOpts:    parseListOpts(r),
	}
	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"since", &filter.Since},
		{"until", &filter.Until},
	} {
		raw := q.Get(bound.param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, bound.param+" must be an RFC 3339 timestamp")
			return
		}
		*bound.dst = &t
	}

	entries, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, "list audit", err)
		return
	}
	views := make([]auditView, len(entries))
	for i, e := range entries {
		views[i] = auditView{
			ID:        e.ID,
			Event:     e.Event,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}
