package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/chillz-id/ticketsync/api/controllers"
	"github.com/chillz-id/ticketsync/internal/ingest"
	"github.com/chillz-id/ticketsync/internal/reconcile"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/internal/synchealth"
	"github.com/chillz-id/ticketsync/pkg/config"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubWebhookService struct{}

func (stubWebhookService) HandleDelivery(context.Context, types.JSONMap, string) (*ingest.Result, error) {
	return &ingest.Result{Outcome: ingest.OutcomeProcessed, Message: "ok"}, nil
}

type stubMonitor struct{}

func (stubMonitor) Check(context.Context) ([]synchealth.PlatformHealth, error) {
	return []synchealth.PlatformHealth{}, nil
}

type stubEngine struct{}

func (stubEngine) CombinedEventMetrics(context.Context, store.AggregateFilter) ([]reconcile.CombinedEventMetrics, error) {
	return nil, nil
}

func (stubEngine) PlatformTotals(context.Context, store.AggregateFilter) ([]reconcile.PlatformTotals, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	registry := prometheus.NewRegistry()

	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		stubWebhookService{},
		stubWebhookService{},
		controllers.SyncHealth(stubMonitor{}, logg),
		controllers.CombinedMetrics(stubEngine{}, logg),
		controllers.PlatformMetrics(stubEngine{}, logg),
		metrics.NewWebhookMetrics(registry),
		registry,
	)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodPost, "/api/v1/webhooks/humanitix", `{"event":"order.created"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/webhooks/eventbrite", `{"config":{"action":"order.placed"}}`, http.StatusOK},
		{http.MethodGet, "/api/v1/webhooks/humanitix", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/sync/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/metrics/combined", "", http.StatusOK},
		{http.MethodGet, "/api/v1/metrics/platforms", "", http.StatusOK},
		{http.MethodGet, "/api/v1/metrics/combined?from=not-a-date", "", http.StatusBadRequest},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
