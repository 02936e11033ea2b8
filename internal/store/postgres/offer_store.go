package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// OfferStore implements domain.OfferStore using PostgreSQL.
type OfferStore struct {
	pool *pgxpool.Pool
}

// NewOfferStore creates a new OfferStore backed by the given connection pool.
func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

const offerSelectCols = `id, offer_id, owner_type, status, offer_type, currency,
	conversion_currency, payment_method, provider, created_at, updated_at`

func scanOfferFromRow(scanner interface{ Scan(dest ...any) error }) (domain.Offer, error) {
	var o domain.Offer
	var owner, status, offerType, currency, fiat, method, provider string

	err := scanner.Scan(
		&o.ID, &o.OfferID, &owner, &status, &offerType, &currency,
		&fiat, &method, &provider, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Offer{}, err
	}

	o.OwnerType = domain.OwnerType(owner)
	o.Status = domain.OfferStatus(status)
	o.Type = domain.OfferType(offerType)
	o.Currency = domain.CryptoCurrency(currency)
	o.ConversionCurrency = domain.FiatCurrency(fiat)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Provider = domain.Provider(provider)
	return o, nil
}

// Create inserts a new offer and returns it with its database id and
// timestamps. A duplicate (provider, offer_id) yields domain.ErrAlreadyExists.
func (s *OfferStore) Create(ctx context.Context, o domain.Offer) (domain.Offer, error) {
	if o.Status == "" {
		o.Status = domain.OfferStatusActive
	}

	const query = `
		INSERT INTO offers (
			offer_id, owner_type, status, offer_type, currency,
			conversion_currency, payment_method, provider, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + offerSelectCols

	row := s.pool.QueryRow(ctx, query,
		o.OfferID, string(o.OwnerType), string(o.Status), string(o.Type),
		string(o.Currency), string(o.ConversionCurrency),
		string(o.PaymentMethod), string(o.Provider),
	)
	created, err := scanOfferFromRow(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.Offer{}, fmt.Errorf("postgres: create offer %s/%s: %w", o.Provider, o.OfferID, domain.ErrAlreadyExists)
		}
		return domain.Offer{}, fmt.Errorf("postgres: create offer %s/%s: %w", o.Provider, o.OfferID, err)
	}
	return created, nil
}

// Get retrieves an offer by provider and provider offer id.
func (s *OfferStore) Get(ctx context.Context, provider domain.Provider, offerID string) (domain.Offer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+offerSelectCols+` FROM offers WHERE provider = $1 AND offer_id = $2`,
		string(provider), offerID)

	o, err := scanOfferFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Offer{}, domain.ErrNotFound
		}
		return domain.Offer{}, fmt.Errorf("postgres: get offer %s/%s: %w", provider, offerID, err)
	}
	return o, nil
}

// Exists reports whether the offer is already tracked.
func (s *OfferStore) Exists(ctx context.Context, provider domain.Provider, offerID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM offers WHERE provider = $1 AND offer_id = $2)`,
		string(provider), offerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: offer exists %s/%s: %w", provider, offerID, err)
	}
	return exists, nil
}

// List returns offers matching the filter ordered by id ascending.
func (s *OfferStore) List(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	query := `SELECT ` + offerSelectCols + ` FROM offers WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.OwnerType != "" {
		query += fmt.Sprintf(" AND owner_type = $%d", argIdx)
		args = append(args, string(filter.OwnerType))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Provider != "" {
		query += fmt.Sprintf(" AND provider = $%d", argIdx)
		args = append(args, string(filter.Provider))
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOfferFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list offers rows: %w", err)
	}
	return offers, nil
}

// UpdateStatus changes the status of a tracked offer and returns the updated
// row.
func (s *OfferStore) UpdateStatus(ctx context.Context, provider domain.Provider, offerID string, status domain.OfferStatus) (domain.Offer, error) {
	const query = `
		UPDATE offers SET status = $1, updated_at = NOW()
		WHERE provider = $2 AND offer_id = $3
		RETURNING ` + offerSelectCols

	o, err := scanOfferFromRow(s.pool.QueryRow(ctx, query, string(status), string(provider), offerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Offer{}, domain.ErrNotFound
		}
		return domain.Offer{}, fmt.Errorf("postgres: update offer status %s/%s: %w", provider, offerID, err)
	}
	return o, nil
}

var _ domain.OfferStore = (*OfferStore)(nil)
