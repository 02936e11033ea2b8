package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/metrics"
)

// Maintain actions, as reported to metrics and logs.
const (
	maintainCreated     = "created"
	maintainKept        = "kept"
	maintainDeactivated = "deactivated"
	maintainLockHeld    = "lock_held"
)

// AuthConfig tunes the token lifecycle.
type AuthConfig struct {
	// SafetyWindow is how long before expiry a token is retired.
	SafetyWindow time.Duration
	// LockTTL bounds how long one Maintain run may hold the provider lock.
	LockTTL time.Duration
}

// AuthService manages one active bearer token per provider. Postgres is the
// source of truth; Redis holds the token provider calls read.
type AuthService struct {
	tokens  domain.TokenStore
	cache   domain.TokenCache
	locks   domain.LockManager
	issuers IssuerLookup
	cfg     AuthConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	tokens domain.TokenStore,
	cache domain.TokenCache,
	locks domain.LockManager,
	issuers IssuerLookup,
	cfg AuthConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	return &AuthService{
		tokens:  tokens,
		cache:   cache,
		locks:   locks,
		issuers: issuers,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With(slog.String("component", "auth_service")),
		now:     time.Now,
	}
}

// CreateToken issues a token through the provider, stores it as active and
// writes it to the cache.
func (s *AuthService) CreateToken(ctx context.Context, p domain.Provider) (domain.AuthenticationToken, error) {
	issuer, err := s.issuers.Issuer(p)
	if err != nil {
		return domain.AuthenticationToken{}, fmt.Errorf("auth_service: create token: %w", err)
	}

	issued, err := issuer.IssueToken(ctx)
	if err != nil {
		return domain.AuthenticationToken{}, fmt.Errorf("auth_service: issue %s token: %w", p, err)
	}

	tok, err := s.tokens.Create(ctx, domain.AuthenticationToken{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Status:    domain.TokenStatusActive,
		Provider:  p,
	})
	if err != nil {
		return domain.AuthenticationToken{}, fmt.Errorf("auth_service: store %s token: %w", p, err)
	}

	if err := s.cache.SetToken(ctx, p, tok.Token); err != nil {
		s.logger.WarnContext(ctx, "auth_service: cache set failed",
			slog.String("provider", string(p)),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "auth_service: created token",
		slog.String("provider", string(p)),
		slog.Int64("token_id", tok.ID),
		slog.Time("expires_at", tok.ExpiresAt),
	)
	return tok, nil
}

// GetToken returns the bearer token for p from the cache, falling back to the
// latest active stored token. It returns domain.ErrNoActiveToken when neither
// has one.
func (s *AuthService) GetToken(ctx context.Context, p domain.Provider) (string, error) {
	tok, err := s.cache.GetToken(ctx, p)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "auth_service: cache get failed",
			slog.String("provider", string(p)),
			slog.String("error", err.Error()),
		)
	}

	stored, err := s.tokens.LatestActive(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("auth_service: %s: %w", p, domain.ErrNoActiveToken)
		}
		return "", fmt.Errorf("auth_service: latest %s token: %w", p, err)
	}

	if err := s.cache.SetToken(ctx, p, stored.Token); err != nil {
		s.logger.WarnContext(ctx, "auth_service: cache backfill failed",
			slog.String("provider", string(p)),
			slog.String("error", err.Error()),
		)
	}
	return stored.Token, nil
}

// Deactivate marks a stored token inactive.
func (s *AuthService) Deactivate(ctx context.Context, tokenID int64) error {
	if err := s.tokens.Deactivate(ctx, tokenID); err != nil {
		return fmt.Errorf("auth_service: deactivate token %d: %w", tokenID, err)
	}
	s.logger.InfoContext(ctx, "auth_service: deactivated token", slog.Int64("token_id", tokenID))
	return nil
}

// Maintain keeps the provider's token usable. With no active token it
// creates one. A token outside the safety window is re-cached. A token
// inside it is deactivated without a replacement; the next run creates the
// new one. The read-decide-write sequence runs under a distributed lock and
// a held lock returns domain.ErrLockHeld.
func (s *AuthService) Maintain(ctx context.Context, p domain.Provider) error {
	unlock, err := s.locks.Acquire(ctx, "auth_token_maintain:"+string(p), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.metrics.RecordTokenMaintain(string(p), maintainLockHeld)
		}
		return fmt.Errorf("auth_service: maintain %s: %w", p, err)
	}
	defer unlock()

	action, err := s.maintainLocked(ctx, p)
	if err != nil {
		return err
	}
	s.metrics.RecordTokenMaintain(string(p), action)
	s.logger.InfoContext(ctx, "auth_service: maintained token",
		slog.String("provider", string(p)),
		slog.String("action", action),
	)
	return nil
}

func (s *AuthService) maintainLocked(ctx context.Context, p domain.Provider) (string, error) {
	tok, err := s.tokens.LatestActive(ctx, p)
	if errors.Is(err, domain.ErrNotFound) {
		if _, err := s.CreateToken(ctx, p); err != nil {
			return "", err
		}
		return maintainCreated, nil
	}
	if err != nil {
		return "", fmt.Errorf("auth_service: latest %s token: %w", p, err)
	}

	if !tok.ExpiresWithin(s.cfg.SafetyWindow, s.now()) {
		if err := s.cache.SetToken(ctx, p, tok.Token); err != nil {
			return "", fmt.Errorf("auth_service: cache %s token: %w", p, err)
		}
		return maintainKept, nil
	}

	if err := s.Deactivate(ctx, tok.ID); err != nil {
		return "", err
	}
	return maintainDeactivated, nil
}
