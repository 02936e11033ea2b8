package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// OfferHistoryStore implements domain.OfferHistoryStore using PostgreSQL.
// Prices travel as text so NUMERIC precision is never rounded through float.
type OfferHistoryStore struct {
	pool *pgxpool.Pool
}

// NewOfferHistoryStore creates a new OfferHistoryStore backed by the given
// connection pool.
func NewOfferHistoryStore(pool *pgxpool.Pool) *OfferHistoryStore {
	return &OfferHistoryStore{pool: pool}
}

const historySelectCols = `id, offer_id, competitor_offer_id, original_price::text,
	updated_price::text, competitor_price::text, provider, created_at`

func scanHistoryFromRow(scanner interface{ Scan(dest ...any) error }) (domain.OfferHistory, error) {
	var h domain.OfferHistory
	var original, updated, competitor, provider string

	if err := scanner.Scan(
		&h.ID, &h.OfferID, &h.CompetitorOfferID,
		&original, &updated, &competitor, &provider, &h.CreatedAt,
	); err != nil {
		return domain.OfferHistory{}, err
	}

	var err error
	if h.OriginalPrice, err = decimal.NewFromString(original); err != nil {
		return domain.OfferHistory{}, fmt.Errorf("original_price: %w", err)
	}
	if h.UpdatedPrice, err = decimal.NewFromString(updated); err != nil {
		return domain.OfferHistory{}, fmt.Errorf("updated_price: %w", err)
	}
	if h.CompetitorPrice, err = decimal.NewFromString(competitor); err != nil {
		return domain.OfferHistory{}, fmt.Errorf("competitor_price: %w", err)
	}
	h.Provider = domain.Provider(provider)
	return h, nil
}

func scanHistoryRows(rows pgx.Rows) ([]domain.OfferHistory, error) {
	var out []domain.OfferHistory
	for rows.Next() {
		h, err := scanHistoryFromRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Create appends a reprice record and returns it with id and created_at set.
func (s *OfferHistoryStore) Create(ctx context.Context, h domain.OfferHistory) (domain.OfferHistory, error) {
	const query = `
		INSERT INTO offer_history (
			offer_id, competitor_offer_id, original_price, updated_price,
			competitor_price, provider, created_at
		) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, NOW())
		RETURNING ` + historySelectCols

	created, err := scanHistoryFromRow(s.pool.QueryRow(ctx, query,
		h.OfferID, h.CompetitorOfferID,
		h.OriginalPrice.String(), h.UpdatedPrice.String(), h.CompetitorPrice.String(),
		string(h.Provider),
	))
	if err != nil {
		return domain.OfferHistory{}, fmt.Errorf("postgres: create offer history for offer %d: %w", h.OfferID, err)
	}
	return created, nil
}

// ListByOffer returns the reprice records of one internal offer, newest first.
func (s *OfferHistoryStore) ListByOffer(ctx context.Context, offerID int64, opts domain.ListOpts) ([]domain.OfferHistory, error) {
	query := `SELECT ` + historySelectCols + ` FROM offer_history WHERE offer_id = $1`
	args := []any{offerID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offer history %d: %w", offerID, err)
	}
	defer rows.Close()

	out, err := scanHistoryRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan offer history %d: %w", offerID, err)
	}
	return out, nil
}

// Archive state is kept in offer_history_archive; offer_history itself is
// never updated.
const (
	listUnarchivedSQL = `SELECT ` + historySelectCols + ` FROM offer_history
		 WHERE created_at < $1
		   AND NOT EXISTS (SELECT 1 FROM offer_history_archive a WHERE a.history_id = offer_history.id)
		 ORDER BY created_at ASC, id ASC
		 LIMIT $2`

	markArchivedSQL = `INSERT INTO offer_history_archive (history_id)
		 SELECT unnest($1::bigint[])
		 ON CONFLICT (history_id) DO NOTHING`
)

// ListBefore returns up to limit unarchived records created before the cutoff,
// oldest first.
func (s *OfferHistoryStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.OfferHistory, error) {
	rows, err := s.pool.Query(ctx, listUnarchivedSQL, before, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offer history before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	out, err := scanHistoryRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan offer history before: %w", err)
	}
	return out, nil
}

// MarkArchived records the given history ids as archived and returns how many
// were newly recorded.
func (s *OfferHistoryStore) MarkArchived(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, markArchivedSQL, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: mark offer history archived: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.OfferHistoryStore = (*OfferHistoryStore)(nil)
