package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/chillz-id/ticketsync/internal/backfill"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/config"
	"github.com/chillz-id/ticketsync/pkg/db"
	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/eventbrite"
	"github.com/chillz-id/ticketsync/pkg/humanitix"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/migrate"
)

// One-shot historical backfill. Walks every known event on the requested
// platform(s) and re-ingests its full order history. Safe to re-run: the
// writer is idempotent.
func main() {
	platformFlag := flag.String("platform", "all", "platform to backfill: humanitix, eventbrite, or all")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "backfill"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "backfill"

	logg = logger.New(logger.Options{
		ServiceName: "backfill",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	platforms, err := resolvePlatforms(*platformFlag)
	if err != nil {
		logg.Error(context.Background(), "invalid platform flag", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	orderRepo := store.NewOrderRepository(dbClient.DB())
	syncStateRepo := store.NewSyncStateRepository(dbClient.DB())
	jobMetrics := metrics.NewSyncJobMetrics(prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	for _, platform := range platforms {
		source, err := buildSource(cfg, platform)
		if err != nil {
			logg.Error(ctx, "failed to create platform source", err)
			os.Exit(1)
		}
		if source == nil {
			logg.Warn(logg.WithPlatform(ctx, string(platform)), "platform not configured, skipping")
			continue
		}

		runner, err := backfill.NewRunner(backfill.RunnerParams{
			Source:     source,
			Orders:     orderRepo,
			SyncStates: syncStateRepo,
			Limiter:    rate.NewLimiter(rate.Every(cfg.Sync.RateDelay), 1),
			Logger:     logg,
			Metrics:    jobMetrics,
			BatchSize:  cfg.Sync.BatchSize,
		})
		if err != nil {
			logg.Error(ctx, "failed to create backfill runner", err)
			os.Exit(1)
		}

		runCtx := logg.WithPlatform(ctx, string(platform))
		logg.Info(runCtx, "starting backfill")

		summary, runErr := runner.Run(runCtx)
		runCtx = logg.WithFields(runCtx, map[string]any{
			"eventsAttempted": summary.EventsAttempted,
			"eventsSucceeded": summary.EventsSucceeded,
			"ordersWritten":   summary.OrdersWritten,
			"errorCount":      summary.ErrorCount,
			"verifiedEvents":  summary.VerifiedEvents,
		})
		if runErr != nil {
			logg.Error(runCtx, "backfill finished with errors", runErr)
			continue
		}
		logg.Info(runCtx, "backfill complete")
	}
}

func resolvePlatforms(value string) ([]enums.Platform, error) {
	if value == "all" || value == "" {
		return enums.Platforms(), nil
	}
	platform, err := enums.ParsePlatform(value)
	if err != nil {
		return nil, err
	}
	return []enums.Platform{platform}, nil
}

// buildSource returns nil without error when the platform has no API
// credential configured.
func buildSource(cfg *config.Config, platform enums.Platform) (backfill.PlatformSource, error) {
	switch platform {
	case enums.PlatformHumanitix:
		if cfg.Humanitix.APIKey == "" {
			return nil, nil
		}
		client, err := humanitix.NewClient(cfg.Humanitix.APIKey, humanitix.WithBaseURL(cfg.Humanitix.BaseURL))
		if err != nil {
			return nil, err
		}
		return backfill.NewHumanitixSource(client)
	case enums.PlatformEventbrite:
		if cfg.Eventbrite.APIToken == "" {
			return nil, nil
		}
		client, err := eventbrite.NewClient(cfg.Eventbrite.APIToken, eventbrite.WithBaseURL(cfg.Eventbrite.BaseURL))
		if err != nil {
			return nil, err
		}
		return backfill.NewEventbriteSource(client, cfg.Eventbrite.OrganizationID)
	}
	return nil, nil
}
