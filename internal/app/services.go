package app

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/offerbot/internal/config"
	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/platform/coinmarketcap"
	"github.com/alanyoungcy/offerbot/internal/platform/p2p"
	"github.com/alanyoungcy/offerbot/internal/provider"
	"github.com/alanyoungcy/offerbot/internal/service"
)

// Services holds the use-case layer built on top of Dependencies.
type Services struct {
	Providers []domain.Provider
	Registry  *provider.Registry
	Auth      *service.AuthService
	Prices    *service.MarketPriceService
	Configs   *service.ConfigService
	Offers    *service.OfferService
	Repricer  *service.Repricer
	Archiver  *service.HistoryArchiver // nil unless archiving is enabled
}

// enabledProviders lists the marketplaces switched on in cfg.
func enabledProviders(cfg *config.Config) []domain.Provider {
	var out []domain.Provider
	if cfg.Noones.Enabled {
		out = append(out, domain.ProviderNoones)
	}
	if cfg.Paxful.Enabled {
		out = append(out, domain.ProviderPaxful)
	}
	return out
}

// buildServices wires the marketplace clients and services. The registry is
// filled after the auth service exists because API clients read their bearer
// token through it.
func buildServices(cfg *config.Config, deps *Dependencies, logger *slog.Logger) *Services {
	reg := provider.NewRegistry()
	svc := &Services{
		Providers: enabledProviders(cfg),
		Registry:  reg,
	}

	svc.Auth = service.NewAuthService(
		deps.TokenStore, deps.TokenCache, deps.LockManager, reg,
		service.AuthConfig{
			SafetyWindow: cfg.Repricer.TokenSafetyWindow.Duration,
			LockTTL:      cfg.Repricer.TokenLockTTL.Duration,
		},
		deps.Metrics, logger,
	)

	for _, p := range svc.Providers {
		mc := cfg.Noones
		prefix := provider.NoonesPathPrefix
		if p == domain.ProviderPaxful {
			mc = cfg.Paxful
			prefix = provider.PaxfulPathPrefix
		}

		token := func(ctx context.Context) (string, error) { return svc.Auth.GetToken(ctx, p) }
		api := p2p.NewAPIClient(string(p), mc.APIURL, prefix, cfg.Repricer.PageSize, token, logger)
		reg.RegisterIssuer(provider.NewIssuer(p, p2p.NewAuthClient(string(p), mc.AuthURL, mc.ClientID, mc.ClientSecret)))

		if p == domain.ProviderPaxful {
			reg.Register(provider.NewPaxfulClient(api, cfg.Repricer.UserCountry, logger))
		} else {
			reg.Register(provider.NewNoonesClient(api, cfg.Repricer.UserCountry, logger))
		}
	}

	cmc := coinmarketcap.NewClient(cfg.CoinMarketCap.BaseURL, cfg.CoinMarketCap.APIKey)
	svc.Prices = service.NewMarketPriceService(deps.PriceCache, cmc, deps.Metrics, logger)
	svc.Configs = service.NewConfigService(deps.ConfigStore, deps.ConfigCache, deps.AuditStore, logger)
	svc.Offers = service.NewOfferService(deps.OfferStore, deps.HistoryStore, reg, deps.AuditStore, logger)
	svc.Repricer = service.NewRepricer(
		reg, deps.OfferStore, deps.HistoryStore, svc.Prices, svc.Configs,
		deps.Notifier, deps.AuditStore,
		service.RepricerConfig{SearchAllBankPaymentMethods: cfg.Repricer.SearchAllBankPaymentMethods},
		deps.Metrics, logger,
	)

	if deps.Archiver != nil {
		svc.Archiver = service.NewHistoryArchiver(deps.Archiver, cfg.Archive.RetentionDays, deps.Notifier, deps.Metrics, logger)
	}
	return svc
}
