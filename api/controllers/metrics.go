package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/chillz-id/ticketsync/api/responses"
	"github.com/chillz-id/ticketsync/internal/reconcile"
	"github.com/chillz-id/ticketsync/internal/store"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
)

type reconcileEngine interface {
	CombinedEventMetrics(ctx context.Context, filter store.AggregateFilter) ([]reconcile.CombinedEventMetrics, error)
	PlatformTotals(ctx context.Context, filter store.AggregateFilter) ([]reconcile.PlatformTotals, error)
}

// CombinedMetrics reports cross-platform event metrics, optionally bounded by
// from/to dates (inclusive from, exclusive to).
func CombinedMetrics(engine reconcileEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation engine unavailable"))
			return
		}

		filter, err := aggregateFilterFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		results, err := engine.CombinedEventMetrics(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// PlatformMetrics reports the per-platform rollup across all events.
func PlatformMetrics(engine reconcileEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation engine unavailable"))
			return
		}

		filter, err := aggregateFilterFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		totals, err := engine.PlatformTotals(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

func aggregateFilterFromQuery(r *http.Request) (store.AggregateFilter, error) {
	var filter store.AggregateFilter
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "from must be YYYY-MM-DD")
		}
		filter.From = &parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "to must be YYYY-MM-DD")
		}
		// exclusive upper bound covering the whole named day
		end := parsed.Add(24 * time.Hour)
		filter.To = &end
	}
	return filter, nil
}
