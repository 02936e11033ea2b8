package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/metrics"
	"github.com/alanyoungcy/offerbot/internal/notify"
)

// HistoryArchiver moves old reprice history to cold storage.
type HistoryArchiver struct {
	archiver      domain.Archiver
	retentionDays int
	notifier      Notifier
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// NewHistoryArchiver creates a HistoryArchiver. notifier may be nil.
func NewHistoryArchiver(archiver domain.Archiver, retentionDays int, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *HistoryArchiver {
	return &HistoryArchiver{
		archiver:      archiver,
		retentionDays: retentionDays,
		notifier:      notifier,
		metrics:       m,
		logger:        logger.With(slog.String("component", "history_archiver")),
		now:           time.Now,
	}
}

// Run archives every history record older than the retention window and
// returns the number exported.
func (a *HistoryArchiver) Run(ctx context.Context) (int64, error) {
	cutoff := a.now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	n, err := a.archiver.ArchiveHistory(ctx, cutoff)
	a.metrics.AddArchived(n)
	if err != nil {
		return n, fmt.Errorf("archiving offer history before %v: %w", cutoff, err)
	}

	a.logger.InfoContext(ctx, "archive run complete", slog.Int64("archived", n))
	if n > 0 && a.notifier != nil {
		msg := fmt.Sprintf("Archived %d offer history records older than %s", n, cutoff.Format(time.DateOnly))
		if err := a.notifier.Notify(ctx, notify.EventArchiveDone, "History archived", msg); err != nil {
			a.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
	return n, nil
}
