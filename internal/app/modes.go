package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/offerbot/internal/scheduler"
	"github.com/alanyoungcy/offerbot/internal/server"
	"github.com/alanyoungcy/offerbot/internal/server/handler"
)

// ImproveMode runs one repricing pass over every enabled provider and exits.
func (a *App) ImproveMode(ctx context.Context, svc *Services) error {
	a.logger.InfoContext(ctx, "starting improve mode")
	var errs []error
	for _, p := range svc.Providers {
		if err := svc.Repricer.ImproveAllActiveOffers(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("improve %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// MaintainTokenMode runs one token maintenance pass and exits.
func (a *App) MaintainTokenMode(ctx context.Context, svc *Services) error {
	a.logger.InfoContext(ctx, "starting maintain-token mode")
	var errs []error
	for _, p := range svc.Providers {
		if err := svc.Auth.Maintain(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("maintain token %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// SchedulerMode runs the periodic jobs until ctx is cancelled.
func (a *App) SchedulerMode(ctx context.Context, svc *Services) error {
	a.logger.InfoContext(ctx, "starting scheduler mode")
	sched, err := a.buildScheduler(svc)
	if err != nil {
		return err
	}
	return sched.Run(ctx)
}

// ServerMode serves the operator API until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svc *Services) error {
	a.logger.InfoContext(ctx, "starting server mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svc)
	return g.Wait()
}

// FullMode runs the scheduler and the operator API side by side.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, svc *Services) error {
	a.logger.InfoContext(ctx, "starting full mode")

	sched, err := a.buildScheduler(svc)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	a.startHTTPServer(ctx, g, deps, svc)
	return g.Wait()
}

func (a *App) buildScheduler(svc *Services) (*scheduler.Scheduler, error) {
	sc := a.cfg.Scheduler
	sched := scheduler.New(sc.RunOnStart, a.logger)

	jobs := []scheduler.Job{
		scheduler.MaintainTokenJob(sc.MaintainTokenCron, svc.Auth, svc.Providers),
		scheduler.ImproveJob(sc.ImproveCron, svc.Repricer, svc.Providers),
	}
	if svc.Archiver != nil {
		jobs = append(jobs, scheduler.ArchiveJob(sc.ArchiveCron, svc.Archiver))
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	return sched, nil
}

// startHTTPServer adds the API server to g. The server is shut down
// gracefully when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svc *Services) {
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(deps.Postgres.Ping),
		"redis":    handler.PingFunc(deps.Redis.Ping),
	}
	if deps.S3 != nil {
		checks["s3"] = handler.PingFunc(deps.S3.Health)
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(checks, a.logger),
			Offers:  handler.NewOfferHandler(svc.Offers, svc.Repricer, a.logger),
			Configs: handler.NewConfigHandler(svc.Configs, a.logger),
			Audit:   handler.NewAuditHandler(deps.AuditStore, a.logger),
			Metrics: deps.Metrics.Handler(),
		},
		deps.RateLimiter,
		deps.Metrics,
		a.logger,
	)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
