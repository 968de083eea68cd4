package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository builds the append-only webhook log repository.
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Append(ctx context.Context, entry *models.WebhookLog) error {
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook log entry is required")
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending webhook log")
	}
	return nil
}
