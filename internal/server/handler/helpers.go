// Package handler implements the HTTP endpoints of the operator API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to 4xx responses with a fixed message
// per sentinel; the wrapped chain is only logged. Anything else is answered
// with a generic 500, or 502 for gateway failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, action string, err error) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, domain.ErrConfigNotFound):
		status, msg = http.StatusNotFound, "currency config not found"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, domain.ErrNotSupported):
		status, msg = http.StatusBadRequest, "unsupported value"
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, "invalid value"
	case domain.IsClientError(err), domain.IsValidationError(err):
		logger.WarnContext(r.Context(), "handler: "+action+" upstream failure",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "marketplace request failed")
		return
	default:
		logger.ErrorContext(r.Context(), "handler: "+action+" failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logger.DebugContext(r.Context(), "handler: "+action+" rejected",
		slog.String("error", err.Error()),
	)
	writeError(w, status, msg)
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseListOpts extracts pagination parameters. Defaults: limit=50 (max 500),
// offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = min(n, 500)
	}
	offset := 0
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
		offset = n
	}
	return domain.ListOpts{Limit: limit, Offset: offset}
}

// offerKey reads and validates the {provider} and {offer_id} path values.
func offerKey(r *http.Request) (domain.Provider, string, error) {
	p, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		return "", "", err
	}
	id := r.PathValue("offer_id")
	if id == "" {
		return "", "", errors.New("missing offer id")
	}
	return p, id, nil
}
