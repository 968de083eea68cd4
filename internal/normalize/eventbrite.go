package normalize

import (
	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/types"
)

// eventbriteOrder maps an Eventbrite order payload. Amounts under costs
// arrive already expressed in minor units. The expanded "event" object, when
// present, carries the denormalized event attributes including venue.
func eventbriteOrder(payload map[string]any) *models.UnifiedOrder {
	sourceID := stringField(payload, "id")
	if sourceID == "" {
		return nil
	}

	costs := mapField(payload, "costs")
	gross := minorCents(mapField(costs, "gross")["value"])
	subtotal := minorCents(mapField(costs, "base_price")["value"])
	fees := orZero(minorCents(mapField(costs, "eventbrite_fee")["value"])) +
		orZero(minorCents(mapField(costs, "payment_fee")["value"]))
	taxes := orZero(minorCents(mapField(costs, "tax")["value"]))

	event := mapField(payload, "event")
	eventSourceID := stringField(payload, "event_id")
	if eventSourceID == "" {
		eventSourceID = stringField(event, "id")
	}

	refunded, _ := payload["refunded"].(bool)

	order := &models.UnifiedOrder{
		Source:          enums.PlatformEventbrite,
		SourceID:        sourceID,
		EventSourceID:   eventSourceID,
		Status:          enums.NormalizeOrderStatus(stringField(payload, "status")),
		FinancialStatus: eventbriteFinancialStatus(gross, refunded),
		TotalCents:      gross,
		SubtotalCents:   subtotal,
		FeesCents:       fees,
		TaxesCents:      taxes,
		NetSalesCents:   netCents(gross, fees, taxes),
		Currency:        strPtr(stringField(mapField(costs, "gross"), "currency")),
		PurchaserName:   derivedName(stringField(payload, "name"), stringField(payload, "first_name"), stringField(payload, "last_name")),
		PurchaserEmail:  strPtr(stringField(payload, "email")),
		TicketQuantity:  eventbriteTicketQuantity(payload),
		OrderedAt:       parseTime(payload["created"]),
		UpdatedAtAPI:    parseTime(payload["changed"]),
		RefundStatus:    enums.RefundStatusNone,
		Raw:             types.JSONMap(payload),
	}

	if refunded {
		order.Status = enums.OrderStatusRefunded
		order.RefundStatus = enums.RefundStatusFull
		order.RefundAmountCents = gross
	}

	applyEventbriteEvent(order, event)
	return order
}

func eventbriteFinancialStatus(gross *int64, refunded bool) enums.FinancialStatus {
	switch {
	case refunded:
		return enums.FinancialStatusRefunded
	case gross != nil && *gross == 0:
		return enums.FinancialStatusFree
	case gross != nil:
		return enums.FinancialStatusPaid
	default:
		return enums.FinancialStatusUnknown
	}
}

func eventbriteTicketQuantity(payload map[string]any) *int64 {
	attendees := sliceField(payload, "attendees")
	if len(attendees) == 0 {
		return nil
	}
	var total int64
	for _, raw := range attendees {
		attendee, ok := raw.(map[string]any)
		if !ok {
			total++
			continue
		}
		if qty := intField(attendee["quantity"]); qty != nil && *qty > 0 {
			total += *qty
			continue
		}
		total++
	}
	return &total
}

func applyEventbriteEvent(order *models.UnifiedOrder, event map[string]any) {
	if event == nil {
		return
	}
	if name := mapField(event, "name"); name != nil {
		order.EventName = strPtr(stringField(name, "text"))
	}
	if start := mapField(event, "start"); start != nil {
		order.EventStartDate = parseTime(start["utc"])
	}

	venue := mapField(event, "venue")
	order.VenueName = strPtr(stringField(venue, "name"))
	if address := mapField(venue, "address"); address != nil {
		order.VenueCity = strPtr(stringField(address, "city"))
	}
}
