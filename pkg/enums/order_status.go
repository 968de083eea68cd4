package enums

import "strings"

// OrderStatus is the canonical lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusComplete  OrderStatus = "complete"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusUnknown   OrderStatus = "unknown"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// NormalizeOrderStatus maps platform status spellings onto the canonical set.
// Unrecognized values collapse to OrderStatusUnknown rather than erroring so a
// new upstream status never breaks ingestion.
func NormalizeOrderStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "placed", "paid":
		return OrderStatusComplete
	case "pending", "started", "processing":
		return OrderStatusPending
	case "cancelled", "canceled", "deleted":
		return OrderStatusCancelled
	case "refunded":
		return OrderStatusRefunded
	case "":
		return OrderStatusUnknown
	default:
		return OrderStatusUnknown
	}
}
