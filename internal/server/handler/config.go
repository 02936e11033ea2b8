package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// ConfigService is what the config endpoints need from the service layer.
type ConfigService interface {
	Set(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency, name, value string) (domain.CurrencyConfig, error)
	List(ctx context.Context) ([]domain.CurrencyConfig, error)
}

// ConfigHandler serves the currency-config endpoints.
type ConfigHandler struct {
	configs ConfigService
	logger  *slog.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(configs ConfigService, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, logger: logger}
}

// ListConfigs returns every stored config and the supported names.
// GET /api/configs
func (h *ConfigHandler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.configs.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list configs", err)
		return
	}
	views := make([]configView, len(configs))
	for i, c := range configs {
		views[i] = toConfigView(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configs":   views,
		"supported": domain.ConfigNames(),
	})
}

type setConfigRequest struct {
	Provider string `json:"provider"`
	Currency string `json:"currency"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// SetConfig creates or updates one config value.
// POST /api/configs
func (h *ConfigHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := domain.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cur, err := domain.ParseCryptoCurrency(req.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.configs.Set(r.Context(), p, cur, req.Name, req.Value)
	if err != nil {
		writeServiceError(w, r, h.logger, "set config", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigView(cfg))
}
