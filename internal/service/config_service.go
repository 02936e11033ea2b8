package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// ConfigService reads and writes per-currency settings. Reads go through the
// cache; writes go to Postgres first and then the cache.
type ConfigService struct {
	store  domain.CurrencyConfigStore
	cache  domain.ConfigCache
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewConfigService creates a ConfigService. audit may be nil.
func NewConfigService(store domain.CurrencyConfigStore, cache domain.ConfigCache, audit domain.AuditStore, logger *slog.Logger) *ConfigService {
	return &ConfigService{
		store:  store,
		cache:  cache,
		audit:  audit,
		logger: logger.With(slog.String("component", "config_service")),
	}
}

// Set validates and stores a config value. Unsupported names fail with
// domain.ErrNotSupported. Non-numeric values and negative last-seen windows
// fail with domain.ErrInvalidInput.
func (s *ConfigService) Set(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency, name, value string) (domain.CurrencyConfig, error) {
	if err := domain.ValidateConfigName(name); err != nil {
		return domain.CurrencyConfig{}, fmt.Errorf("config_service: set: %w", err)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return domain.CurrencyConfig{}, fmt.Errorf("config_service: set %s=%q: %w", name, value, domain.ErrInvalidInput)
	}
	if name == domain.ConfigOwnerLastSeenMaxTime && v.IsNegative() {
		return domain.CurrencyConfig{}, fmt.Errorf("config_service: set %s=%q: must not be negative: %w", name, value, domain.ErrInvalidInput)
	}

	cfg, err := s.store.Upsert(ctx, domain.CurrencyConfig{
		Currency: currency,
		Name:     name,
		Value:    value,
		Provider: p,
	})
	if err != nil {
		return domain.CurrencyConfig{}, fmt.Errorf("config_service: set %s/%s/%s: %w", p, currency, name, err)
	}

	if err := s.cache.SetConfig(ctx, p, currency, name, value); err != nil {
		s.logger.WarnContext(ctx, "config_service: cache set failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	if s.audit != nil {
		if err := s.audit.Log(ctx, "config.set", map[string]any{
			"provider": string(p),
			"currency": string(currency),
			"name":     name,
			"value":    value,
		}); err != nil {
			s.logger.WarnContext(ctx, "config_service: audit log failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "config_service: set config",
		slog.String("provider", string(p)),
		slog.String("currency", string(currency)),
		slog.String("name", name),
		slog.String("value", value),
	)
	return cfg, nil
}

// Get returns a config value from the cache or the store, re-caching store
// hits. A missing value is domain.ErrConfigNotFound; there are no defaults.
func (s *ConfigService) Get(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency, name string) (string, error) {
	if err := domain.ValidateConfigName(name); err != nil {
		return "", fmt.Errorf("config_service: get: %w", err)
	}

	if v, err := s.cache.GetConfig(ctx, p, currency, name); err == nil && v != "" {
		return v, nil
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "config_service: cache get failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	cfg, err := s.store.Get(ctx, p, currency, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("config_service: %s/%s/%s: %w", p, currency, name, domain.ErrConfigNotFound)
		}
		return "", fmt.Errorf("config_service: get %s/%s/%s: %w", p, currency, name, err)
	}
	if cfg.Value == "" {
		return "", fmt.Errorf("config_service: %s/%s/%s is empty: %w", p, currency, name, domain.ErrConfigNotFound)
	}

	if err := s.cache.SetConfig(ctx, p, currency, name, cfg.Value); err != nil {
		s.logger.WarnContext(ctx, "config_service: cache backfill failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
	return cfg.Value, nil
}

// GetDecimal returns a config value parsed as a decimal.
func (s *ConfigService) GetDecimal(ctx context.Context, p domain.Provider, currency domain.CryptoCurrency, name string) (decimal.Decimal, error) {
	v, err := s.Get(ctx, p, currency, name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config_service: %s=%q is not a number: %w", name, v, domain.ErrInvalidInput)
	}
	return d, nil
}

// List returns every stored config.
func (s *ConfigService) List(ctx context.Context) ([]domain.CurrencyConfig, error) {
	configs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("config_service: list: %w", err)
	}
	return configs, nil
}
