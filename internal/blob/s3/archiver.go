package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// HistoryArchiveStore is the slice of the history store the archiver needs.
type HistoryArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.OfferHistory, error)
	MarkArchived(ctx context.Context, ids []int64) (int64, error)
}

// ArchiveImpl implements domain.Archiver. It exports unarchived history in
// batches as JSONL objects and marks each batch archived once uploaded. Rows
// are never deleted here.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	reader    domain.BlobReader
	history   HistoryArchiveStore
	audit     domain.AuditStore
	batchSize int
}

// NewArchiver creates an ArchiveImpl. batchSize <= 0 defaults to 1000.
func NewArchiver(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	history HistoryArchiveStore,
	audit domain.AuditStore,
	batchSize int,
) *ArchiveImpl {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ArchiveImpl{
		writer:    writer,
		reader:    reader,
		history:   history,
		audit:     audit,
		batchSize: batchSize,
	}
}

// historyRecord is the JSONL line format for one archived reprice.
type historyRecord struct {
	ID                int64           `json:"id"`
	OfferID           int64           `json:"offer_id"`
	CompetitorOfferID int64           `json:"competitor_offer_id"`
	OriginalPrice     decimal.Decimal `json:"original_price"`
	UpdatedPrice      decimal.Decimal `json:"updated_price"`
	CompetitorPrice   decimal.Decimal `json:"competitor_price"`
	Provider          string          `json:"provider"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ArchiveHistory uploads every unarchived record created before the cutoff
// to archive/offer_history/YYYY-MM-DD/part-NNNN.jsonl and returns the count.
func (a *ArchiveImpl) ArchiveHistory(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	part := 0

	for {
		batch, err := a.history.ListBefore(ctx, before, a.batchSize)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive history query: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		records := make([]historyRecord, len(batch))
		ids := make([]int64, len(batch))
		for i, h := range batch {
			records[i] = historyRecord{
				ID:                h.ID,
				OfferID:           h.OfferID,
				CompetitorOfferID: h.CompetitorOfferID,
				OriginalPrice:     h.OriginalPrice,
				UpdatedPrice:      h.UpdatedPrice,
				CompetitorPrice:   h.CompetitorPrice,
				Provider:          string(h.Provider),
				CreatedAt:         h.CreatedAt,
			}
			ids[i] = h.ID
		}

		buf, err := marshalJSONL(records)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive history marshal: %w", err)
		}

		path, next, err := a.freePath(ctx, before, part)
		if err != nil {
			return total, err
		}
		part = next + 1

		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("s3blob: archive history upload: %w", err)
		}
		if _, err := a.history.MarkArchived(ctx, ids); err != nil {
			return total, fmt.Errorf("s3blob: archive history mark %s: %w", path, err)
		}
		total += int64(len(batch))

		if len(batch) < a.batchSize {
			break
		}
	}

	if total > 0 && a.audit != nil {
		if err := a.audit.Log(ctx, "archive.offer_history", map[string]any{
			"count":  total,
			"before": before.Format(time.RFC3339),
		}); err != nil {
			return total, fmt.Errorf("s3blob: archive history audit log: %w", err)
		}
	}
	return total, nil
}

// freePath returns the first part path at or after part that is not yet
// taken, so reruns on the same day never overwrite an earlier export.
func (a *ArchiveImpl) freePath(ctx context.Context, before time.Time, part int) (string, int, error) {
	for {
		path := archivePath(before, part)
		exists, err := a.reader.Exists(ctx, path)
		if err != nil {
			return "", 0, fmt.Errorf("s3blob: archive history probe %s: %w", path, err)
		}
		if !exists {
			return path, part, nil
		}
		part++
	}
}

// archivePath names one export part, e.g.
//
//	archive/offer_history/2026-01-31/part-0000.jsonl
func archivePath(before time.Time, part int) string {
	return fmt.Sprintf("archive/offer_history/%s/part-%04d.jsonl", before.UTC().Format("2006-01-02"), part)
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ArchiveImpl)(nil)
