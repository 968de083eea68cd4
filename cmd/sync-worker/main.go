package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/chillz-id/ticketsync/internal/backfill"
	"github.com/chillz-id/ticketsync/internal/schedule"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/config"
	"github.com/chillz-id/ticketsync/pkg/db"
	"github.com/chillz-id/ticketsync/pkg/eventbrite"
	"github.com/chillz-id/ticketsync/pkg/humanitix"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/migrate"
	"github.com/chillz-id/ticketsync/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	orderRepo := store.NewOrderRepository(dbClient.DB())
	syncStateRepo := store.NewSyncStateRepository(dbClient.DB())
	jobMetrics := metrics.NewSyncJobMetrics(prometheus.DefaultRegisterer)

	jobs := []schedule.PlatformJob{}

	if cfg.Humanitix.APIKey != "" {
		client, err := humanitix.NewClient(cfg.Humanitix.APIKey, humanitix.WithBaseURL(cfg.Humanitix.BaseURL))
		if err != nil {
			logg.Error(context.Background(), "failed to create humanitix client", err)
			os.Exit(1)
		}
		source, err := backfill.NewHumanitixSource(client)
		if err != nil {
			logg.Error(context.Background(), "failed to create humanitix source", err)
			os.Exit(1)
		}
		job, err := platformJob(cfg, redisClient, logg, jobMetrics, orderRepo, syncStateRepo, source)
		if err != nil {
			logg.Error(context.Background(), "failed to create humanitix sync job", err)
			os.Exit(1)
		}
		jobs = append(jobs, job)
	} else {
		logg.Warn(context.Background(), "humanitix api key not set, skipping humanitix sync")
	}

	if cfg.Eventbrite.APIToken != "" {
		client, err := eventbrite.NewClient(cfg.Eventbrite.APIToken, eventbrite.WithBaseURL(cfg.Eventbrite.BaseURL))
		if err != nil {
			logg.Error(context.Background(), "failed to create eventbrite client", err)
			os.Exit(1)
		}
		source, err := backfill.NewEventbriteSource(client, cfg.Eventbrite.OrganizationID)
		if err != nil {
			logg.Error(context.Background(), "failed to create eventbrite source", err)
			os.Exit(1)
		}
		job, err := platformJob(cfg, redisClient, logg, jobMetrics, orderRepo, syncStateRepo, source)
		if err != nil {
			logg.Error(context.Background(), "failed to create eventbrite sync job", err)
			os.Exit(1)
		}
		jobs = append(jobs, job)
	} else {
		logg.Warn(context.Background(), "eventbrite api token not set, skipping eventbrite sync")
	}

	worker, err := schedule.NewWorker(schedule.WorkerParams{
		Logger:   logg,
		Jobs:     jobs,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"platforms":   len(jobs),
	})
	logg.Info(ctx, "starting sync worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func platformJob(
	cfg *config.Config,
	redisClient *redis.Client,
	logg *logger.Logger,
	jobMetrics *metrics.SyncJobMetrics,
	orders store.OrderRepository,
	syncStates store.SyncStateRepository,
	source backfill.PlatformSource,
) (schedule.PlatformJob, error) {
	platform := source.Platform()

	runner, err := backfill.NewRunner(backfill.RunnerParams{
		Source:     source,
		Orders:     orders,
		SyncStates: syncStates,
		Limiter:    rate.NewLimiter(rate.Every(cfg.Sync.RateDelay), 1),
		Logger:     logg,
		Metrics:    jobMetrics,
		BatchSize:  cfg.Sync.BatchSize,
	})
	if err != nil {
		return schedule.PlatformJob{}, err
	}

	lock, err := schedule.NewRedisLock(redisClient, redisClient.SyncLockKey(string(platform)), cfg.Sync.LockTTL)
	if err != nil {
		return schedule.PlatformJob{}, err
	}

	return schedule.PlatformJob{
		Platform: platform,
		Runner:   runner,
		Lock:     lock,
	}, nil
}
