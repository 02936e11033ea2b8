package domain

import "time"

// TokenStatus is the lifecycle state of a provider bearer token.
type TokenStatus string

const (
	TokenStatusActive   TokenStatus = "active"
	TokenStatusInactive TokenStatus = "inactive"
)

// AuthenticationToken is a persisted provider bearer credential. At most one
// token per provider is kept active by the auth service.
type AuthenticationToken struct {
	ID        int64
	Token     string
	ExpiresAt time.Time
	Status    TokenStatus
	Provider  Provider
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpiresWithin reports whether the token expires within window of now.
func (t AuthenticationToken) ExpiresWithin(window time.Duration, now time.Time) bool {
	return !t.ExpiresAt.Add(-window).After(now)
}

// IssuedToken is a freshly issued credential returned by a provider's token
// endpoint before it is persisted.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
