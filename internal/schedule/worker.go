package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/chillz-id/ticketsync/internal/backfill"
	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/logger"
)

const defaultSyncInterval = 15 * time.Minute

type backfillRunner interface {
	Run(ctx context.Context) (backfill.Summary, error)
}

// PlatformJob pairs one platform's backfill runner with its coordination
// lock. Each platform syncs independently; a stuck Humanitix run never
// blocks Eventbrite.
type PlatformJob struct {
	Platform enums.Platform
	Runner   backfillRunner
	Lock     Lock
}

// WorkerParams configure the sync worker loop.
type WorkerParams struct {
	Logger   *logger.Logger
	Jobs     []PlatformJob
	Interval time.Duration
}

// Worker runs the platform sync jobs on a fixed cadence.
type Worker struct {
	logg     *logger.Logger
	jobs     []PlatformJob
	interval time.Duration
}

func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(params.Jobs) == 0 {
		return nil, fmt.Errorf("at least one platform job required")
	}
	for _, job := range params.Jobs {
		if job.Runner == nil || job.Lock == nil {
			return nil, fmt.Errorf("platform job %s incomplete", job.Platform)
		}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Worker{logg: params.Logger, jobs: params.Jobs, interval: interval}, nil
}

// Run starts the sync loop until the context is cancelled. The first cycle
// runs immediately so a fresh deployment does not wait a full interval.
func (w *Worker) Run(ctx context.Context) error {
	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "sync worker context cancelled")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	for _, job := range w.jobs {
		if ctx.Err() != nil {
			return
		}
		w.runJob(ctx, job)
	}
}

func (w *Worker) runJob(ctx context.Context, job PlatformJob) {
	jobCtx := w.logg.WithPlatform(ctx, string(job.Platform))
	jobCtx = w.logg.WithJob(jobCtx, "platform_sync")

	locked, err := job.Lock.Acquire(jobCtx)
	if err != nil {
		w.logg.Error(jobCtx, "sync lock acquire failed", err)
		return
	}
	if !locked {
		w.logg.Info(jobCtx, "another instance is syncing this platform; skipping")
		return
	}
	defer func() {
		if relErr := job.Lock.Release(jobCtx); relErr != nil {
			w.logg.Error(jobCtx, "failed to release sync lock", relErr)
		}
	}()

	w.logg.Info(jobCtx, "platform sync starting")
	start := time.Now()
	summary, err := job.Runner.Run(jobCtx)
	jobCtx = w.logg.WithFields(jobCtx, map[string]any{
		"duration_ms":      time.Since(start).Milliseconds(),
		"events_attempted": summary.EventsAttempted,
		"events_succeeded": summary.EventsSucceeded,
		"orders_written":   summary.OrdersWritten,
		"error_count":      summary.ErrorCount,
	})
	if err != nil {
		w.logg.Error(jobCtx, "platform sync finished with errors", err)
		return
	}
	w.logg.Info(jobCtx, "platform sync completed")
}
