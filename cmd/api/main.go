package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chillz-id/ticketsync/api/controllers"
	webhookcontrollers "github.com/chillz-id/ticketsync/api/controllers/webhooks"
	"github.com/chillz-id/ticketsync/api/routes"
	"github.com/chillz-id/ticketsync/internal/ingest"
	"github.com/chillz-id/ticketsync/internal/reconcile"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/internal/synchealth"
	"github.com/chillz-id/ticketsync/pkg/config"
	"github.com/chillz-id/ticketsync/pkg/db"
	"github.com/chillz-id/ticketsync/pkg/eventbrite"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/migrate"
	"github.com/chillz-id/ticketsync/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	// Redis only backs the sync worker lock, so the API treats it as an
	// optional readiness dependency.
	var redisP redis.Pinger
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
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
		redisP = redisClient
	}

	orderRepo := store.NewOrderRepository(dbClient.DB())
	syncStateRepo := store.NewSyncStateRepository(dbClient.DB())
	webhookLogRepo := store.NewWebhookLogRepository(dbClient.DB())

	humanitixService, err := ingest.NewHumanitixService(ingest.HumanitixServiceParams{
		Orders:     orderRepo,
		SyncStates: syncStateRepo,
		Logs:       webhookLogRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create humanitix ingest service", err)
		os.Exit(1)
	}

	var eventbriteService webhookcontrollers.DeliveryService
	if cfg.Eventbrite.APIToken != "" {
		ebClient, err := eventbrite.NewClient(cfg.Eventbrite.APIToken, eventbrite.WithBaseURL(cfg.Eventbrite.BaseURL))
		if err != nil {
			logg.Error(context.Background(), "failed to create eventbrite client", err)
			os.Exit(1)
		}
		svc, err := ingest.NewEventbriteService(ingest.EventbriteServiceParams{
			Orders:     orderRepo,
			SyncStates: syncStateRepo,
			Logs:       webhookLogRepo,
			Fetcher:    ebClient,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create eventbrite ingest service", err)
			os.Exit(1)
		}
		eventbriteService = svc
	} else {
		logg.Warn(context.Background(), "eventbrite api token not set, eventbrite webhook ingestion disabled")
	}

	monitor, err := synchealth.NewMonitor(syncStateRepo, cfg.Sync.FreshnessWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync health monitor", err)
		os.Exit(1)
	}

	engine, err := reconcile.NewEngine(orderRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation engine", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisP,
			humanitixService,
			eventbriteService,
			controllers.SyncHealth(monitor, logg),
			controllers.CombinedMetrics(engine, logg),
			controllers.PlatformMetrics(engine, logg),
			webhookMetrics,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
