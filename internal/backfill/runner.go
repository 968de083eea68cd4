package backfill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/chillz-id/ticketsync/internal/normalize"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
)

type orderStore interface {
	UpsertOrdersBatched(ctx context.Context, orders []*models.UnifiedOrder, batchSize int) (int, error)
	DistinctEventSourceIDs(ctx context.Context, source enums.Platform) ([]string, error)
	CountByEvent(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error)
	CountWithEventData(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error)
}

type syncStateStore interface {
	MarkSynced(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error
	MarkError(ctx context.Context, eventSourceID string, platform enums.Platform, message string) error
}

// Summary reports what one backfill run accomplished.
type Summary struct {
	Platform        enums.Platform `json:"platform"`
	EventsAttempted int            `json:"events_attempted"`
	EventsSucceeded int            `json:"events_succeeded"`
	OrdersWritten   int            `json:"orders_written"`
	ErrorCount      int            `json:"error_count"`
	VerifiedEvents  int            `json:"verified_events"`
	EnrichedEvents  int            `json:"enriched_events"`
}

type RunnerParams struct {
	Source     PlatformSource
	Orders     orderStore
	SyncStates syncStateStore
	Limiter    *rate.Limiter
	Logger     *logger.Logger
	Metrics    *metrics.SyncJobMetrics
	BatchSize  int
}

// Runner walks every known event on one platform and re-ingests its full
// order history. Webhook gaps heal because the writer is idempotent.
type Runner struct {
	source     PlatformSource
	orders     orderStore
	syncStates syncStateStore
	limiter    *rate.Limiter
	logg       *logger.Logger
	jobMetrics *metrics.SyncJobMetrics
	batchSize  int
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform source required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	if params.SyncStates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync state repository required")
	}
	if params.Limiter == nil {
		params.Limiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
	}
	if params.BatchSize <= 0 {
		params.BatchSize = store.DefaultBatchSize
	}
	return &Runner{
		source:     params.Source,
		orders:     params.Orders,
		syncStates: params.SyncStates,
		limiter:    params.Limiter,
		logg:       params.Logger,
		jobMetrics: params.Metrics,
		batchSize:  params.BatchSize,
	}, nil
}

// Run backfills every event the platform or the store knows about. Per-event
// failures are recorded and skipped; the run only aborts when the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	platform := r.source.Platform()
	summary := Summary{Platform: platform}
	started := time.Now()

	if r.logg != nil {
		ctx = r.logg.WithPlatform(ctx, string(platform))
	}

	eventIDs, err := r.collectEventIDs(ctx)
	if err != nil {
		r.observe(platform, started, false)
		return summary, err
	}

	var runErr error
	for _, eventID := range eventIDs {
		if ctx.Err() != nil {
			r.observe(platform, started, false)
			return summary, pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "backfill interrupted")
		}

		summary.EventsAttempted++
		written, enriched, eventErr := r.backfillEvent(ctx, eventID)
		summary.OrdersWritten += written
		if enriched {
			summary.EnrichedEvents++
		}
		if eventErr != nil {
			summary.ErrorCount++
			runErr = multierr.Append(runErr, fmt.Errorf("event %s: %w", eventID, eventErr))
			if markErr := r.syncStates.MarkError(ctx, eventID, platform, eventErr.Error()); markErr != nil && r.logg != nil {
				r.logg.Error(r.logg.WithEventID(ctx, eventID), "backfill.sync_state_update_failed", markErr)
			}
			if r.logg != nil {
				r.logg.Error(r.logg.WithEventID(ctx, eventID), "backfill.event_failed", eventErr)
			}
			continue
		}

		summary.EventsSucceeded++
		if err := r.syncStates.MarkSynced(ctx, eventID, platform, time.Now().UTC()); err != nil && r.logg != nil {
			r.logg.Error(r.logg.WithEventID(ctx, eventID), "backfill.sync_state_update_failed", err)
		}
	}

	summary.VerifiedEvents = r.verify(ctx, platform, eventIDs)

	if r.jobMetrics != nil {
		r.jobMetrics.AddOrdersWritten(string(platform), summary.OrdersWritten)
	}
	r.observe(platform, started, runErr == nil)

	if r.logg != nil {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"events_attempted": summary.EventsAttempted,
			"events_succeeded": summary.EventsSucceeded,
			"orders_written":   summary.OrdersWritten,
			"error_count":      summary.ErrorCount,
		}), "backfill.completed")
	}
	return summary, runErr
}

// collectEventIDs unions the platform's live event list with events already
// present in the store, so removed or archived events still heal.
func (r *Runner) collectEventIDs(ctx context.Context) ([]string, error) {
	stored, err := r.orders.DistinctEventSourceIDs(ctx, r.source.Platform())
	if err != nil {
		return nil, err
	}

	var live []string
	cursor := ""
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit wait")
		}
		page, err := r.source.ListEventIDs(ctx, cursor)
		if err != nil {
			return nil, err
		}
		live = append(live, page.IDs...)
		if !page.HasMore {
			break
		}
		cursor = page.Next
	}

	seen := make(map[string]struct{}, len(stored)+len(live))
	var ids []string
	for _, id := range append(stored, live...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Runner) backfillEvent(ctx context.Context, eventID string) (int, bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit wait")
	}
	detail, err := r.source.EventDetail(ctx, eventID)
	if err != nil {
		return 0, false, err
	}

	written := 0
	cursor := ""
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return written, detail != nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit wait")
		}
		page, err := r.source.Orders(ctx, eventID, cursor)
		if err != nil {
			return written, detail != nil, err
		}

		batch := make([]*models.UnifiedOrder, 0, len(page.Orders))
		for _, payload := range page.Orders {
			mergeEventDetail(payload, detail)
			if order := normalize.Order(r.source.Platform(), payload); order != nil {
				if order.EventSourceID == "" {
					order.EventSourceID = eventID
				}
				batch = append(batch, order)
			}
		}

		n, err := r.orders.UpsertOrdersBatched(ctx, batch, r.batchSize)
		written += n
		if err != nil {
			return written, detail != nil, err
		}

		if !page.HasMore {
			return written, detail != nil, nil
		}
		cursor = page.Next
	}
}

// mergeEventDetail copies the event detail into the order payload so the
// mapper sees venue data even when the list endpoint omits it. The merged
// payload is what lands in the raw column.
func mergeEventDetail(payload, detail map[string]any) {
	if payload == nil || detail == nil {
		return
	}
	existing, ok := payload["event"].(map[string]any)
	if !ok || existing == nil {
		payload["event"] = detail
		return
	}
	for key, value := range detail {
		if _, present := existing[key]; !present {
			existing[key] = value
		}
	}
}

// verify samples written events and confirms rows are durably present and
// carry event data.
func (r *Runner) verify(ctx context.Context, platform enums.Platform, eventIDs []string) int {
	verified := 0
	sample := eventIDs
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, eventID := range sample {
		count, err := r.orders.CountByEvent(ctx, platform, eventID)
		if err != nil || count == 0 {
			continue
		}
		enriched, err := r.orders.CountWithEventData(ctx, platform, eventID)
		if err != nil {
			continue
		}
		if enriched > 0 {
			verified++
		} else if r.logg != nil {
			r.logg.Warn(r.logg.WithEventID(ctx, eventID), "backfill.event_data_missing")
		}
	}
	return verified
}

func (r *Runner) observe(platform enums.Platform, started time.Time, success bool) {
	if r.jobMetrics == nil {
		return
	}
	r.jobMetrics.ObserveDuration(string(platform), time.Since(started))
	if success {
		r.jobMetrics.IncSuccess(string(platform))
	} else {
		r.jobMetrics.IncFailure(string(platform))
	}
}
