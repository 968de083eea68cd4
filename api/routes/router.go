package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chillz-id/ticketsync/api/controllers"
	webhookcontrollers "github.com/chillz-id/ticketsync/api/controllers/webhooks"
	"github.com/chillz-id/ticketsync/api/middleware"
	"github.com/chillz-id/ticketsync/pkg/config"
	"github.com/chillz-id/ticketsync/pkg/db"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/redis"
)

// NewRouter wires the HTTP surface: webhook ingestion, sync health, the
// reconciliation read endpoints, and prometheus exposition.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	humanitixWebhook webhookcontrollers.DeliveryService,
	eventbriteWebhook webhookcontrollers.DeliveryService,
	syncHealthController http.HandlerFunc,
	combinedMetricsController http.HandlerFunc,
	platformMetricsController http.HandlerFunc,
	webhookMetrics *metrics.WebhookMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/humanitix", webhookcontrollers.Humanitix(humanitixWebhook, cfg.Humanitix.WebhookSecret, logg, webhookMetrics))
			r.Post("/eventbrite", webhookcontrollers.Eventbrite(eventbriteWebhook, cfg.Eventbrite.WebhookSecret, cfg.Eventbrite.WebhookURL, logg, webhookMetrics))
		})

		r.Get("/sync/health", syncHealthController)
		r.Route("/metrics", func(r chi.Router) {
			r.Get("/combined", combinedMetricsController)
			r.Get("/platforms", platformMetricsController)
		})
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
