package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

// DefaultBatchSize bounds upsert statement size and isolates partial-batch
// failures.
const DefaultBatchSize = 50

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds an order repository bound to the provided DB.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &orderRepository{db: tx}
}

// conflictAssignments lists the upsert behavior per column. Order fields are
// last-write-wins, including raw. Event attributes merge on write: an absent
// value never clears one an earlier fetch filled in.
func conflictAssignments() map[string]any {
	assignments := map[string]any{
		"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}
	lastWriteWins := []string{
		"event_source_id", "status", "financial_status",
		"total_cents", "subtotal_cents", "fees_cents", "taxes_cents", "net_sales_cents",
		"currency", "purchaser_name", "purchaser_email", "ticket_quantity",
		"ordered_at", "updated_at_api",
		"refund_status", "refund_amount_cents", "refunded_at",
		"raw", "ingested_at",
	}
	for _, col := range lastWriteWins {
		assignments[col] = gorm.Expr("excluded." + col)
	}
	mergeOnWrite := []string{
		"event_name", "event_start_date", "venue_name", "venue_city", "event_category",
	}
	for _, col := range mergeOnWrite {
		assignments[col] = gorm.Expr("COALESCE(excluded." + col + ", unified_orders." + col + ")")
	}
	return assignments
}

func (r *orderRepository) UpsertOrders(ctx context.Context, orders []*models.UnifiedOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, order := range orders {
		if order.IngestedAt.IsZero() {
			order.IngestedAt = now
		}
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "source_id"}},
			DoUpdates: clause.Assignments(conflictAssignments()),
		}).
		Create(&orders).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upserting unified orders")
	}
	return len(orders), nil
}

// UpsertOrdersBatched writes in fixed-size chunks and stops at the first
// failing batch, reporting how many rows were already durably written.
func (r *orderRepository) UpsertOrdersBatched(ctx context.Context, orders []*models.UnifiedOrder, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	written := 0
	for start := 0; start < len(orders); start += batchSize {
		end := start + batchSize
		if end > len(orders) {
			end = len(orders)
		}
		count, err := r.UpsertOrders(ctx, orders[start:end])
		written += count
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (r *orderRepository) ApplyRefund(ctx context.Context, source enums.Platform, sourceID string, update RefundUpdate) error {
	values := map[string]any{
		"status":           update.Status,
		"financial_status": update.FinancialStatus,
		"refund_status":    update.RefundStatus,
		"refunded_at":      update.RefundedAt.UTC(),
	}
	if update.AmountCents != nil {
		values["refund_amount_cents"] = *update.AmountCents
	}

	result := r.db.WithContext(ctx).
		Model(&models.UnifiedOrder{}).
		Where("source = ? AND source_id = ?", source, sourceID).
		Updates(values)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "applying refund update")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for refund update")
	}
	return nil
}

func (r *orderRepository) FindBySourceID(ctx context.Context, source enums.Platform, sourceID string) (*models.UnifiedOrder, error) {
	var order models.UnifiedOrder
	err := r.db.WithContext(ctx).
		Where("source = ? AND source_id = ?", source, sourceID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding order")
	}
	return &order, nil
}

func (r *orderRepository) DistinctEventSourceIDs(ctx context.Context, source enums.Platform) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.UnifiedOrder{}).
		Where("source = ? AND event_source_id <> ''", source).
		Distinct("event_source_id").
		Order("event_source_id").
		Pluck("event_source_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing known event IDs")
	}
	return ids, nil
}

func (r *orderRepository) CountByEvent(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UnifiedOrder{}).
		Where("source = ? AND event_source_id = ?", source, eventSourceID).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting orders for event")
	}
	return count, nil
}

func (r *orderRepository) CountWithEventData(ctx context.Context, source enums.Platform, eventSourceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UnifiedOrder{}).
		Where("source = ? AND event_source_id = ? AND event_name IS NOT NULL", source, eventSourceID).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting enriched orders for event")
	}
	return count, nil
}

func (r *orderRepository) EventAggregates(ctx context.Context, filter AggregateFilter) ([]EventAggregate, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UnifiedOrder{}).
		Select(`source,
			event_source_id,
			MAX(event_name) AS event_name,
			MIN(event_start_date) AS event_start_date,
			MAX(venue_name) AS venue_name,
			COUNT(*) AS orders,
			SUM(COALESCE(ticket_quantity, 0)) AS tickets,
			SUM(COALESCE(total_cents, 0)) AS revenue_cents,
			SUM(COALESCE(net_sales_cents, 0)) AS net_sales_cents,
			SUM(COALESCE(fees_cents, 0)) AS fees_cents`).
		Where("event_source_id <> ''").
		Group("source").
		Group("event_source_id")

	if filter.From != nil {
		query = query.Where("ordered_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("ordered_at < ?", filter.To.UTC())
	}

	var aggregates []EventAggregate
	if err := query.Scan(&aggregates).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregating orders by event")
	}
	return aggregates, nil
}
