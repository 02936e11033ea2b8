package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a new TokenStore backed by the given connection pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

const tokenSelectCols = `id, token, expires_at, status, provider, created_at, updated_at`

func scanTokenFromRow(scanner interface{ Scan(dest ...any) error }) (domain.AuthenticationToken, error) {
	var t domain.AuthenticationToken
	var status, provider string
	if err := scanner.Scan(&t.ID, &t.Token, &t.ExpiresAt, &status, &provider, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.AuthenticationToken{}, err
	}
	t.Status = domain.TokenStatus(status)
	t.Provider = domain.Provider(provider)
	return t, nil
}

// Create persists a newly issued token.
func (s *TokenStore) Create(ctx context.Context, t domain.AuthenticationToken) (domain.AuthenticationToken, error) {
	if t.Status == "" {
		t.Status = domain.TokenStatusActive
	}
	const query = `
		INSERT INTO authentication_tokens (token, expires_at, status, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + tokenSelectCols

	created, err := scanTokenFromRow(s.pool.QueryRow(ctx, query,
		t.Token, t.ExpiresAt, string(t.Status), string(t.Provider)))
	if err != nil {
		return domain.AuthenticationToken{}, fmt.Errorf("postgres: create token %s: %w", t.Provider, err)
	}
	return created, nil
}

// LatestActive returns the most recently created active token for the
// provider.
func (s *TokenStore) LatestActive(ctx context.Context, provider domain.Provider) (domain.AuthenticationToken, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenSelectCols+` FROM authentication_tokens
		 WHERE provider = $1 AND status = $2
		 ORDER BY id DESC LIMIT 1`,
		string(provider), string(domain.TokenStatusActive))

	t, err := scanTokenFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuthenticationToken{}, domain.ErrNotFound
		}
		return domain.AuthenticationToken{}, fmt.Errorf("postgres: latest active token %s: %w", provider, err)
	}
	return t, nil
}

// Deactivate marks the token inactive.
func (s *TokenStore) Deactivate(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE authentication_tokens SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(domain.TokenStatusInactive), id)
	if err != nil {
		return fmt.Errorf("postgres: deactivate token %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.TokenStore = (*TokenStore)(nil)
