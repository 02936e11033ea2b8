package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// Repricer is the batch repricing entry point.
type Repricer interface {
	ImproveAllActiveOffers(ctx context.Context, p domain.Provider) error
}

// TokenMaintainer keeps provider tokens usable.
type TokenMaintainer interface {
	Maintain(ctx context.Context, p domain.Provider) error
}

// HistoryArchiver exports old reprice history.
type HistoryArchiver interface {
	Run(ctx context.Context) (int64, error)
}

// ImproveJob reprices the active offers of every provider in turn.
func ImproveJob(spec string, r Repricer, providers []domain.Provider) Job {
	return Job{
		Name: "improve_offers",
		Spec: spec,
		Run: func(ctx context.Context) error {
			return eachProvider(ctx, providers, r.ImproveAllActiveOffers)
		},
	}
}

// MaintainTokenJob maintains the token of every provider in turn. A held
// lock on one provider does not stop the others.
func MaintainTokenJob(spec string, m TokenMaintainer, providers []domain.Provider) Job {
	return Job{
		Name: "maintain_token",
		Spec: spec,
		Run: func(ctx context.Context) error {
			return eachProvider(ctx, providers, m.Maintain)
		},
	}
}

// ArchiveJob runs the history archiver.
func ArchiveJob(spec string, a HistoryArchiver) Job {
	return Job{
		Name: "archive_history",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := a.Run(ctx)
			return err
		},
	}
}

func eachProvider(ctx context.Context, providers []domain.Provider, fn func(context.Context, domain.Provider) error) error {
	var errs []error
	for _, p := range providers {
		if err := fn(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
