package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
)

// RefundUpdate is the partial update applied when a refund or cancellation
// event arrives. Refund payloads carry less information than the original
// order, so the existing row is patched rather than re-normalized.
type RefundUpdate struct {
	Status          enums.OrderStatus
	FinancialStatus enums.FinancialStatus
	RefundStatus    enums.RefundStatus
	AmountCents     *int64
	RefundedAt      time.Time
}

// EventAggregate is the per-(source, event) rollup the reconciliation engine
// reads. Derived on demand, never persisted.
type EventAggregate struct {
	Source         enums.Platform `gorm:"column:source"`
	EventSourceID  string         `gorm:"column:event_source_id"`
	EventName      string         `gorm:"column:event_name"`
	EventStartDate *time.Time     `gorm:"column:event_start_date"`
	VenueName      string         `gorm:"column:venue_name"`
	Orders         int64          `gorm:"column:orders"`
	Tickets        int64          `gorm:"column:tickets"`
	RevenueCents   int64          `gorm:"column:revenue_cents"`
	NetSalesCents  int64          `gorm:"column:net_sales_cents"`
	FeesCents      int64          `gorm:"column:fees_cents"`
}

// AggregateFilter bounds order aggregation by ordered_at.
type AggregateFilter struct {
	From *time.Time
	To   *time.Time
}

// OrderRepository is the only surface that mutates the canonical order store.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	UpsertOrders(ctx context.Context, orders []*models.UnifiedOrder) (int, error)
	UpsertOrdersBatched(ctx context.Context, orders []*models.UnifiedOrder, batchSize int) (int, error)
	ApplyRefund(ctx context.Context, source enums.Platform, sourceID string, update RefundUpdate) error
	FindBySourceID(ctx context.Context, source enums.Platform, sourceID string) (*models.UnifiedOrder, error)
	DistinctEventSourceIDs(ctx context.Context, source enums.Platform) ([]string, error)
	CountByEvent(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error)
	CountWithEventData(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error)
	EventAggregates(ctx context.Context, filter AggregateFilter) ([]EventAggregate, error)
}

// SyncStateRepository tracks per-(event, platform) sync freshness.
type SyncStateRepository interface {
	MarkSynced(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error
	MarkWebhookReceived(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error
	MarkError(ctx context.Context, eventSourceID string, platform enums.Platform, message string) error
	Unlink(ctx context.Context, eventSourceID string, platform enums.Platform) error
	ListStates(ctx context.Context) ([]models.PlatformSyncState, error)
}

// WebhookLogRepository is append-only; rows are never updated or deleted.
type WebhookLogRepository interface {
	Append(ctx context.Context, entry *models.WebhookLog) error
}
