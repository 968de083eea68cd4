package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chillz-id/ticketsync/pkg/enums"
)

// PlatformSyncState tracks sync freshness per (event, platform). Created on
// the first successful write for the pair, updated on every write or error
// thereafter, and removed only by an explicit unlink.
type PlatformSyncState struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	EventSourceID         string         `gorm:"column:event_source_id;not null;uniqueIndex:idx_sync_states_event_platform,priority:1"`
	Platform              enums.Platform `gorm:"column:platform;type:text;not null;uniqueIndex:idx_sync_states_event_platform,priority:2"`
	LastSyncAt            *time.Time     `gorm:"column:last_sync_at"`
	LastWebhookReceivedAt *time.Time     `gorm:"column:last_webhook_received_at"`
	LastError             *string        `gorm:"column:last_error"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the row ID when the caller did not.
func (s *PlatformSyncState) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
