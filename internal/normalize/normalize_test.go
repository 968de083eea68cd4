package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chillz-id/ticketsync/pkg/enums"
)

func humanitixPayload(t *testing.T) map[string]any {
	t.Helper()
	raw := `{
		"_id": "htx_ord_1",
		"eventId": "htx_evt_1",
		"status": "complete",
		"financialStatus": "paid",
		"currency": "AUD",
		"createdAt": "2025-06-01T10:30:00Z",
		"updatedAt": "2025-06-02T08:00:00Z",
		"firstName": "Ada",
		"lastName": "Lovelace",
		"email": "ada@example.com",
		"quantity": 3,
		"totals": {
			"total": 150.55,
			"subtotal": 140.00,
			"totalFees": 8.05,
			"totalTaxes": 2.50
		},
		"event": {
			"name": "Friday Night Live",
			"startDate": "2025-11-01T20:00:00Z",
			"eventLocation": {"venueName": "The Warehouse", "city": "Sydney"}
		}
	}`
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func eventbritePayload(t *testing.T) map[string]any {
	t.Helper()
	raw := `{
		"id": "eb_ord_1",
		"event_id": "eb_evt_1",
		"status": "placed",
		"created": "2025-06-01T10:30:00Z",
		"changed": "2025-06-01T11:00:00Z",
		"name": "Grace Hopper",
		"email": "grace@example.com",
		"costs": {
			"gross": {"value": 15055, "currency": "AUD"},
			"base_price": {"value": 14000},
			"eventbrite_fee": {"value": 605},
			"payment_fee": {"value": 200},
			"tax": {"value": 250}
		},
		"attendees": [
			{"quantity": 2},
			{"quantity": 1}
		],
		"event": {
			"id": "eb_evt_1",
			"name": {"text": "Friday Night Live"},
			"start": {"utc": "2025-11-01T20:00:00Z"},
			"venue": {"name": "The Warehouse", "address": {"city": "Sydney"}}
		}
	}`
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestHumanitixOrderMapsMajorUnits(t *testing.T) {
	order := Order(enums.PlatformHumanitix, humanitixPayload(t))
	require.NotNil(t, order)

	assert.Equal(t, enums.PlatformHumanitix, order.Source)
	assert.Equal(t, "htx_ord_1", order.SourceID)
	assert.Equal(t, "htx_evt_1", order.EventSourceID)
	assert.Equal(t, enums.OrderStatusComplete, order.Status)
	assert.Equal(t, enums.FinancialStatusPaid, order.FinancialStatus)

	require.NotNil(t, order.TotalCents)
	assert.Equal(t, int64(15055), *order.TotalCents)
	require.NotNil(t, order.SubtotalCents)
	assert.Equal(t, int64(14000), *order.SubtotalCents)
	assert.Equal(t, int64(805), order.FeesCents)
	assert.Equal(t, int64(250), order.TaxesCents)
	require.NotNil(t, order.NetSalesCents)
	assert.Equal(t, int64(14000), *order.NetSalesCents)

	require.NotNil(t, order.PurchaserName)
	assert.Equal(t, "Ada Lovelace", *order.PurchaserName)
	require.NotNil(t, order.TicketQuantity)
	assert.Equal(t, int64(3), *order.TicketQuantity)

	require.NotNil(t, order.EventName)
	assert.Equal(t, "Friday Night Live", *order.EventName)
	require.NotNil(t, order.VenueName)
	assert.Equal(t, "The Warehouse", *order.VenueName)
	require.NotNil(t, order.VenueCity)
	assert.Equal(t, "Sydney", *order.VenueCity)
	require.NotNil(t, order.OrderedAt)
	assert.Equal(t, "2025-06-01T10:30:00Z", order.OrderedAt.Format("2006-01-02T15:04:05Z"))
}

func TestEventbriteOrderMapsMinorUnits(t *testing.T) {
	order := Order(enums.PlatformEventbrite, eventbritePayload(t))
	require.NotNil(t, order)

	assert.Equal(t, enums.PlatformEventbrite, order.Source)
	assert.Equal(t, "eb_ord_1", order.SourceID)
	assert.Equal(t, "eb_evt_1", order.EventSourceID)
	assert.Equal(t, enums.OrderStatusComplete, order.Status)
	assert.Equal(t, enums.FinancialStatusPaid, order.FinancialStatus)

	require.NotNil(t, order.TotalCents)
	assert.Equal(t, int64(15055), *order.TotalCents)
	assert.Equal(t, int64(805), order.FeesCents)
	assert.Equal(t, int64(250), order.TaxesCents)
	require.NotNil(t, order.NetSalesCents)
	assert.Equal(t, int64(14000), *order.NetSalesCents)

	require.NotNil(t, order.Currency)
	assert.Equal(t, "AUD", *order.Currency)
	require.NotNil(t, order.PurchaserName)
	assert.Equal(t, "Grace Hopper", *order.PurchaserName)
	require.NotNil(t, order.TicketQuantity)
	assert.Equal(t, int64(3), *order.TicketQuantity)

	require.NotNil(t, order.EventName)
	assert.Equal(t, "Friday Night Live", *order.EventName)
	require.NotNil(t, order.VenueCity)
	assert.Equal(t, "Sydney", *order.VenueCity)
}

func TestOrderIsDeterministic(t *testing.T) {
	payload := humanitixPayload(t)
	first := Order(enums.PlatformHumanitix, payload)
	second := Order(enums.PlatformHumanitix, payload)
	assert.Equal(t, first, second)

	ebPayload := eventbritePayload(t)
	assert.Equal(t, Order(enums.PlatformEventbrite, ebPayload), Order(enums.PlatformEventbrite, ebPayload))
}

func TestOrderMissingIdentifierReturnsNil(t *testing.T) {
	assert.Nil(t, Order(enums.PlatformHumanitix, map[string]any{"status": "complete"}))
	assert.Nil(t, Order(enums.PlatformEventbrite, map[string]any{"status": "placed"}))
	assert.Nil(t, Order(enums.PlatformHumanitix, nil))
	assert.Nil(t, Order(enums.Platform("unknown"), map[string]any{"id": "x"}))
}

func TestOrderMissingOptionalFieldsYieldNulls(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{"_id": "bare"})
	require.NotNil(t, order)

	assert.Equal(t, "bare", order.SourceID)
	assert.Nil(t, order.TotalCents)
	assert.Nil(t, order.SubtotalCents)
	assert.Nil(t, order.NetSalesCents)
	assert.Zero(t, order.FeesCents)
	assert.Zero(t, order.TaxesCents)
	assert.Nil(t, order.Currency)
	assert.Nil(t, order.PurchaserName)
	assert.Nil(t, order.PurchaserEmail)
	assert.Nil(t, order.OrderedAt)
	assert.Nil(t, order.EventName)
	assert.Equal(t, enums.OrderStatusUnknown, order.Status)
}

func TestNetSalesNeverNegative(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{
		"_id": "fee_heavy",
		"totals": map[string]any{
			"total":      10.00,
			"totalFees":  8.00,
			"totalTaxes": 5.00,
		},
	})
	require.NotNil(t, order)
	require.NotNil(t, order.NetSalesCents)
	assert.Equal(t, int64(0), *order.NetSalesCents)
}

func TestMajorUnitRoundingIsHalfUpNotTruncation(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{
		"_id":    "round",
		"totals": map[string]any{"total": 10.005},
	})
	require.NotNil(t, order)
	require.NotNil(t, order.TotalCents)
	assert.Equal(t, int64(1001), *order.TotalCents)
}

func TestUnparsableNumbersBecomeNullNotZero(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{
		"_id":    "garbage",
		"totals": map[string]any{"total": "not-a-number", "subtotal": "null"},
	})
	require.NotNil(t, order)
	assert.Nil(t, order.TotalCents)
	assert.Nil(t, order.SubtotalCents)
	assert.Nil(t, order.NetSalesCents)
}

func TestGarbageDatesBecomeNull(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{
		"_id":       "dates",
		"createdAt": "not-a-date",
		"updatedAt": "null",
	})
	require.NotNil(t, order)
	assert.Nil(t, order.OrderedAt)
	assert.Nil(t, order.UpdatedAtAPI)
}

func TestNameFallbackEmptyResolvesToNil(t *testing.T) {
	order := Order(enums.PlatformEventbrite, map[string]any{
		"id":         "names",
		"first_name": "  ",
		"last_name":  "",
	})
	require.NotNil(t, order)
	assert.Nil(t, order.PurchaserName)
}

func TestEventbriteRefundedFlagSetsRefundFields(t *testing.T) {
	payload := eventbritePayload(t)
	payload["refunded"] = true
	order := Order(enums.PlatformEventbrite, payload)
	require.NotNil(t, order)

	assert.Equal(t, enums.OrderStatusRefunded, order.Status)
	assert.Equal(t, enums.FinancialStatusRefunded, order.FinancialStatus)
	assert.Equal(t, enums.RefundStatusFull, order.RefundStatus)
	require.NotNil(t, order.RefundAmountCents)
	assert.Equal(t, int64(15055), *order.RefundAmountCents)
}

func TestHumanitixPartialRefundStatus(t *testing.T) {
	order := Order(enums.PlatformHumanitix, map[string]any{
		"_id":             "partial",
		"financialStatus": "partiallyRefunded",
		"totals":          map[string]any{"total": 100.00, "refunds": 25.00},
	})
	require.NotNil(t, order)
	assert.Equal(t, enums.RefundStatusPartial, order.RefundStatus)
	require.NotNil(t, order.RefundAmountCents)
	assert.Equal(t, int64(2500), *order.RefundAmountCents)
}

func TestRawPayloadRetainedVerbatim(t *testing.T) {
	payload := humanitixPayload(t)
	order := Order(enums.PlatformHumanitix, payload)
	require.NotNil(t, order)
	assert.Equal(t, payload["_id"], order.Raw["_id"])
	assert.Equal(t, payload["totals"], order.Raw["totals"])
}

func TestOrdersDropsUnmappablePayloads(t *testing.T) {
	orders := Orders(enums.PlatformEventbrite, []map[string]any{
		{"id": "keep_1"},
		{"status": "placed"},
		{"id": "keep_2"},
	})
	require.Len(t, orders, 2)
	assert.Equal(t, "keep_1", orders[0].SourceID)
	assert.Equal(t, "keep_2", orders[1].SourceID)
}
