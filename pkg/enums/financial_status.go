package enums

import "strings"

// FinancialStatus tracks the money side of an order independently of its
// lifecycle status.
type FinancialStatus string

const (
	FinancialStatusPaid              FinancialStatus = "paid"
	FinancialStatusFree              FinancialStatus = "free"
	FinancialStatusRefunded          FinancialStatus = "refunded"
	FinancialStatusPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialStatusUnknown           FinancialStatus = "unknown"
)

// String implements fmt.Stringer.
func (f FinancialStatus) String() string {
	return string(f)
}

// NormalizeFinancialStatus maps platform spellings onto the canonical set.
func NormalizeFinancialStatus(raw string) FinancialStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return FinancialStatusPaid
	case "free":
		return FinancialStatusFree
	case "refunded":
		return FinancialStatusRefunded
	case "partiallyrefunded", "partially-refunded", "partially_refunded", "partial-refund":
		return FinancialStatusPartiallyRefunded
	default:
		return FinancialStatusUnknown
	}
}
