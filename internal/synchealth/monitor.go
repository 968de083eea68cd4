package synchealth

import (
	"context"
	"time"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

type syncStateReader interface {
	ListStates(ctx context.Context) ([]models.PlatformSyncState, error)
}

// PlatformHealth is the freshness report for one (event, platform) pair.
type PlatformHealth struct {
	EventSourceID         string           `json:"event_source_id"`
	Platform              enums.Platform   `json:"platform"`
	Status                enums.SyncHealth `json:"status"`
	LastSyncAt            *time.Time       `json:"last_sync_at,omitempty"`
	LastWebhookReceivedAt *time.Time       `json:"last_webhook_received_at,omitempty"`
	LastError             *string          `json:"last_error,omitempty"`
}

// Monitor classifies sync freshness against a configurable window. Read-only;
// it never mutates sync state.
type Monitor struct {
	states syncStateReader
	window time.Duration
	now    func() time.Time
}

const defaultFreshnessWindow = 24 * time.Hour

func NewMonitor(states syncStateReader, window time.Duration) (*Monitor, error) {
	if states == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync state repository required")
	}
	if window <= 0 {
		window = defaultFreshnessWindow
	}
	return &Monitor{states: states, window: window, now: time.Now}, nil
}

// Check reports the health of every tracked (event, platform) pair. Pairs
// with no recorded success are no_data even when an error timestamp exists.
func (m *Monitor) Check(ctx context.Context) ([]PlatformHealth, error) {
	states, err := m.states.ListStates(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := m.now().Add(-m.window)
	reports := make([]PlatformHealth, 0, len(states))
	for _, state := range states {
		report := PlatformHealth{
			EventSourceID:         state.EventSourceID,
			Platform:              state.Platform,
			Status:                enums.SyncHealthNoData,
			LastSyncAt:            state.LastSyncAt,
			LastWebhookReceivedAt: state.LastWebhookReceivedAt,
			LastError:             state.LastError,
		}
		if freshest := freshestSuccess(state); freshest != nil {
			if freshest.After(cutoff) {
				report.Status = enums.SyncHealthHealthy
			} else {
				report.Status = enums.SyncHealthStale
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func freshestSuccess(state models.PlatformSyncState) *time.Time {
	freshest := state.LastSyncAt
	if state.LastWebhookReceivedAt != nil {
		if freshest == nil || state.LastWebhookReceivedAt.After(*freshest) {
			freshest = state.LastWebhookReceivedAt
		}
	}
	return freshest
}
