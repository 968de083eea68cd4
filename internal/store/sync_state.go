package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

type syncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository builds a sync-state repository bound to the provided DB.
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db}
}

func (r *syncStateRepository) MarkSynced(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error {
	at = at.UTC()
	return r.upsert(ctx, eventSourceID, platform, map[string]any{
		"last_sync_at": at,
		"last_error":   gorm.Expr("NULL"),
		"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
	}, &models.PlatformSyncState{
		EventSourceID: eventSourceID,
		Platform:      platform,
		LastSyncAt:    &at,
	})
}

func (r *syncStateRepository) MarkWebhookReceived(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error {
	at = at.UTC()
	return r.upsert(ctx, eventSourceID, platform, map[string]any{
		"last_sync_at":             at,
		"last_webhook_received_at": at,
		"last_error":               gorm.Expr("NULL"),
		"updated_at":               gorm.Expr("CURRENT_TIMESTAMP"),
	}, &models.PlatformSyncState{
		EventSourceID:         eventSourceID,
		Platform:              platform,
		LastSyncAt:            &at,
		LastWebhookReceivedAt: &at,
	})
}

func (r *syncStateRepository) MarkError(ctx context.Context, eventSourceID string, platform enums.Platform, message string) error {
	return r.upsert(ctx, eventSourceID, platform, map[string]any{
		"last_error": message,
		"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}, &models.PlatformSyncState{
		EventSourceID: eventSourceID,
		Platform:      platform,
		LastError:     &message,
	})
}

func (r *syncStateRepository) upsert(ctx context.Context, eventSourceID string, platform enums.Platform, updates map[string]any, insert *models.PlatformSyncState) error {
	if eventSourceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event source ID is required")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_source_id"}, {Name: "platform"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(insert).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upserting platform sync state")
	}
	return nil
}

// Unlink removes the sync state for an (event, platform) pair. This is the
// only path that deletes sync state.
func (r *syncStateRepository) Unlink(ctx context.Context, eventSourceID string, platform enums.Platform) error {
	err := r.db.WithContext(ctx).
		Where("event_source_id = ? AND platform = ?", eventSourceID, platform).
		Delete(&models.PlatformSyncState{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlinking platform sync state")
	}
	return nil
}

func (r *syncStateRepository) ListStates(ctx context.Context) ([]models.PlatformSyncState, error) {
	var states []models.PlatformSyncState
	err := r.db.WithContext(ctx).
		Order("platform, event_source_id").
		Find(&states).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing platform sync states")
	}
	return states, nil
}
