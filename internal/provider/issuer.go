package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/platform/p2p"
)

type tokenEndpoint interface {
	CreateToken(ctx context.Context) (p2p.TokenResponse, error)
}

// Issuer implements TokenIssuer over a marketplace oauth2 endpoint.
type Issuer struct {
	provider domain.Provider
	auth     tokenEndpoint
	now      func() time.Time
}

// NewIssuer creates an Issuer for provider.
func NewIssuer(provider domain.Provider, auth tokenEndpoint) *Issuer {
	return &Issuer{provider: provider, auth: auth, now: time.Now}
}

func (i *Issuer) Provider() domain.Provider { return i.provider }

// IssueToken requests a token and converts expires_in into an absolute
// expiry.
func (i *Issuer) IssueToken(ctx context.Context) (domain.IssuedToken, error) {
	resp, err := i.auth.CreateToken(ctx)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("provider: unable to create %s token: %w", i.provider, err)
	}

	src := string(i.provider)
	if resp.AccessToken == nil || *resp.AccessToken == "" {
		return domain.IssuedToken{}, &domain.DataValidationError{Source: src, Field: "access_token", Reason: "is required"}
	}
	if resp.ExpiresIn == nil {
		return domain.IssuedToken{}, &domain.DataValidationError{Source: src, Field: "expires_in", Reason: "is required"}
	}

	return domain.IssuedToken{
		Token:     *resp.AccessToken,
		ExpiresAt: i.now().Add(time.Duration(*resp.ExpiresIn) * time.Second),
	}, nil
}

var _ TokenIssuer = (*Issuer)(nil)
