package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/types"
)

// WebhookLog is the append-only audit trail of every inbound webhook, whether
// or not it produced a write. Rows are never updated or deleted; replaying
// this log is the recovery path when normalization logic changes.
type WebhookLog struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Platform     enums.Platform `gorm:"column:platform;type:text;not null;index"`
	EventType    string         `gorm:"column:event_type;not null"`
	Payload      types.JSONMap  `gorm:"column:payload;type:jsonb;serializer:json"`
	Signature    *string        `gorm:"column:signature"`
	Processed    bool           `gorm:"column:processed;not null;default:false"`
	ErrorMessage *string        `gorm:"column:error_message"`
	ReceivedAt   time.Time      `gorm:"column:received_at;not null"`
}

// BeforeCreate assigns the row ID when the caller did not.
func (w *WebhookLog) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
