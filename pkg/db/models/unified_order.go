package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/types"
)

// UnifiedOrder is the canonical order record every platform payload is
// normalized into. (source, source_id) is the upsert conflict key; redelivery
// of the same order overwrites the row instead of duplicating it.
type UnifiedOrder struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Source          enums.Platform        `gorm:"column:source;type:text;not null;uniqueIndex:idx_unified_orders_source_source_id,priority:1"`
	SourceID        string                `gorm:"column:source_id;not null;uniqueIndex:idx_unified_orders_source_source_id,priority:2"`
	EventSourceID   string                `gorm:"column:event_source_id;not null;index"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'unknown'"`
	FinancialStatus enums.FinancialStatus `gorm:"column:financial_status;type:text;not null;default:'unknown'"`
	TotalCents      *int64                `gorm:"column:total_cents"`
	SubtotalCents   *int64                `gorm:"column:subtotal_cents"`
	FeesCents       int64                 `gorm:"column:fees_cents;not null;default:0"`
	TaxesCents      int64                 `gorm:"column:taxes_cents;not null;default:0"`
	NetSalesCents   *int64                `gorm:"column:net_sales_cents"`
	Currency        *string               `gorm:"column:currency"`
	PurchaserName   *string               `gorm:"column:purchaser_name"`
	PurchaserEmail  *string               `gorm:"column:purchaser_email"`
	TicketQuantity  *int64                `gorm:"column:ticket_quantity"`
	OrderedAt       *time.Time            `gorm:"column:ordered_at"`
	UpdatedAtAPI    *time.Time            `gorm:"column:updated_at_api"`

	RefundStatus      enums.RefundStatus `gorm:"column:refund_status;type:text;not null;default:'none'"`
	RefundAmountCents *int64             `gorm:"column:refund_amount_cents"`
	RefundedAt        *time.Time         `gorm:"column:refunded_at"`

	// Event attributes are denormalized onto the order when the payload
	// carries them. They merge on write: a later, more complete fetch fills
	// gaps but an absent value never clears an earlier one.
	EventName      *string    `gorm:"column:event_name"`
	EventStartDate *time.Time `gorm:"column:event_start_date"`
	VenueName      *string    `gorm:"column:venue_name"`
	VenueCity      *string    `gorm:"column:venue_city"`
	EventCategory  *string    `gorm:"column:event_category"`

	Raw        types.JSONMap `gorm:"column:raw;type:jsonb;serializer:json"`
	IngestedAt time.Time     `gorm:"column:ingested_at;not null"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the row ID when the caller did not.
func (o *UnifiedOrder) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
