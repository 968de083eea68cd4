package synchealth

import (
	"context"
	"testing"
	"time"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
)

type stubStateReader struct {
	states []models.PlatformSyncState
}

func (s *stubStateReader) ListStates(context.Context) ([]models.PlatformSyncState, error) {
	return s.states, nil
}

func TestCheckClassifiesFreshness(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-1 * time.Hour)
	old := now.Add(-48 * time.Hour)
	errMsg := "humanitix returned 500"

	cases := []struct {
		name  string
		state models.PlatformSyncState
		want  enums.SyncHealth
	}{
		{
			name:  "recent sync is healthy",
			state: models.PlatformSyncState{EventSourceID: "evt_1", Platform: enums.PlatformHumanitix, LastSyncAt: &fresh},
			want:  enums.SyncHealthHealthy,
		},
		{
			name:  "old sync is stale",
			state: models.PlatformSyncState{EventSourceID: "evt_2", Platform: enums.PlatformHumanitix, LastSyncAt: &old},
			want:  enums.SyncHealthStale,
		},
		{
			name:  "no success at all is no_data",
			state: models.PlatformSyncState{EventSourceID: "evt_3", Platform: enums.PlatformEventbrite, LastError: &errMsg},
			want:  enums.SyncHealthNoData,
		},
		{
			name: "recent webhook rescues an old sync",
			state: models.PlatformSyncState{
				EventSourceID:         "evt_4",
				Platform:              enums.PlatformEventbrite,
				LastSyncAt:            &old,
				LastWebhookReceivedAt: &fresh,
			},
			want: enums.SyncHealthHealthy,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			monitor, err := NewMonitor(&stubStateReader{states: []models.PlatformSyncState{tc.state}}, 24*time.Hour)
			if err != nil {
				t.Fatalf("setup monitor: %v", err)
			}
			monitor.now = func() time.Time { return now }

			reports, err := monitor.Check(context.Background())
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if len(reports) != 1 {
				t.Fatalf("expected one report, got %d", len(reports))
			}
			if reports[0].Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, reports[0].Status)
			}
		})
	}
}

func TestCheckDefaultsWindow(t *testing.T) {
	monitor, err := NewMonitor(&stubStateReader{}, 0)
	if err != nil {
		t.Fatalf("setup monitor: %v", err)
	}
	if monitor.window != defaultFreshnessWindow {
		t.Fatalf("expected default window, got %s", monitor.window)
	}
}
