package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// CurrencyConfigStore implements domain.CurrencyConfigStore using PostgreSQL.
type CurrencyConfigStore struct {
	pool *pgxpool.Pool
}

// NewCurrencyConfigStore creates a new CurrencyConfigStore backed by the given
// connection pool.
func NewCurrencyConfigStore(pool *pgxpool.Pool) *CurrencyConfigStore {
	return &CurrencyConfigStore{pool: pool}
}

const configSelectCols = `id, currency, name, value, provider, created_at, updated_at`

func scanConfigFromRow(scanner interface{ Scan(dest ...any) error }) (domain.CurrencyConfig, error) {
	var c domain.CurrencyConfig
	var currency, provider string
	if err := scanner.Scan(&c.ID, &currency, &c.Name, &c.Value, &provider, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.CurrencyConfig{}, err
	}
	c.Currency = domain.CryptoCurrency(currency)
	c.Provider = domain.Provider(provider)
	return c, nil
}

// Upsert inserts or updates the value stored for (provider, currency, name).
func (s *CurrencyConfigStore) Upsert(ctx context.Context, cfg domain.CurrencyConfig) (domain.CurrencyConfig, error) {
	const query = `
		INSERT INTO currency_configs (currency, name, value, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (provider, currency, name) DO UPDATE SET
			value      = EXCLUDED.value,
			updated_at = NOW()
		RETURNING ` + configSelectCols

	out, err := scanConfigFromRow(s.pool.QueryRow(ctx, query,
		string(cfg.Currency), cfg.Name, cfg.Value, string(cfg.Provider)))
	if err != nil {
		return domain.CurrencyConfig{}, fmt.Errorf("postgres: upsert currency config %s/%s/%s: %w", cfg.Provider, cfg.Currency, cfg.Name, err)
	}
	return out, nil
}

// Get retrieves a single config value.
func (s *CurrencyConfigStore) Get(ctx context.Context, provider domain.Provider, currency domain.CryptoCurrency, name string) (domain.CurrencyConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+configSelectCols+` FROM currency_configs
		 WHERE provider = $1 AND currency = $2 AND name = $3`,
		string(provider), string(currency), name)

	c, err := scanConfigFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CurrencyConfig{}, domain.ErrNotFound
		}
		return domain.CurrencyConfig{}, fmt.Errorf("postgres: get currency config %s/%s/%s: %w", provider, currency, name, err)
	}
	return c, nil
}

// List returns all stored configs.
func (s *CurrencyConfigStore) List(ctx context.Context) ([]domain.CurrencyConfig, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+configSelectCols+` FROM currency_configs ORDER BY provider, currency, name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list currency configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.CurrencyConfig
	for rows.Next() {
		c, err := scanConfigFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan currency config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list currency configs rows: %w", err)
	}
	return configs, nil
}

var _ domain.CurrencyConfigStore = (*CurrencyConfigStore)(nil)
