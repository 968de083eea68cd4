package controllers

import (
	"context"
	"net/http"

	"github.com/chillz-id/ticketsync/api/responses"
	"github.com/chillz-id/ticketsync/internal/synchealth"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
)

type healthMonitor interface {
	Check(ctx context.Context) ([]synchealth.PlatformHealth, error)
}

// SyncHealth reports per-(event, platform) sync freshness.
func SyncHealth(monitor healthMonitor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if monitor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync health monitor unavailable"))
			return
		}

		reports, err := monitor.Check(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports)
	}
}
