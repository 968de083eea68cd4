package normalize

import (
	"time"

	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	"github.com/chillz-id/ticketsync/pkg/types"
)

// humanitixOrder maps a Humanitix order payload. Amounts arrive as
// major-unit floats under totals. Event attributes ride along under "event"
// when the webhook or a backfill merge supplied them.
func humanitixOrder(payload map[string]any) *models.UnifiedOrder {
	sourceID := stringField(payload, "_id")
	if sourceID == "" {
		sourceID = stringField(payload, "id")
	}
	if sourceID == "" {
		return nil
	}

	totals := mapField(payload, "totals")

	gross := majorCents(totals["total"])
	if gross == nil {
		gross = majorCents(totals["grossSales"])
	}
	if gross == nil {
		gross = majorCents(payload["total"])
	}
	if gross == nil {
		gross = majorCents(payload["total_amount"])
	}
	subtotal := majorCents(totals["subtotal"])
	if subtotal == nil {
		subtotal = majorCents(totals["netSales"])
	}
	fees := orZero(majorCents(totals["totalFees"]))
	taxes := orZero(majorCents(totals["totalTaxes"]))

	order := &models.UnifiedOrder{
		Source:          enums.PlatformHumanitix,
		SourceID:        sourceID,
		EventSourceID:   stringField(payload, "eventId"),
		Status:          enums.NormalizeOrderStatus(stringField(payload, "status")),
		FinancialStatus: enums.NormalizeFinancialStatus(stringField(payload, "financialStatus")),
		TotalCents:      gross,
		SubtotalCents:   subtotal,
		FeesCents:       fees,
		TaxesCents:      taxes,
		NetSalesCents:   netCents(gross, fees, taxes),
		Currency:        strPtr(stringField(payload, "currency")),
		PurchaserName:   humanitixPurchaserName(payload),
		PurchaserEmail:  humanitixPurchaserEmail(payload),
		TicketQuantity:  humanitixTicketQuantity(payload),
		OrderedAt:       orderedAt(payload),
		UpdatedAtAPI:    parseTime(payload["updatedAt"]),
		RefundStatus:    enums.RefundStatusNone,
		Raw:             types.JSONMap(payload),
	}

	switch order.FinancialStatus {
	case enums.FinancialStatusRefunded:
		order.RefundStatus = enums.RefundStatusFull
	case enums.FinancialStatusPartiallyRefunded:
		order.RefundStatus = enums.RefundStatusPartial
	}
	if order.RefundStatus != enums.RefundStatusNone {
		if refunds := majorCents(totals["refunds"]); refunds != nil && *refunds > 0 {
			order.RefundAmountCents = refunds
		} else {
			order.RefundAmountCents = gross
		}
	}

	applyHumanitixEvent(order, mapField(payload, "event"))
	return order
}

func orderedAt(payload map[string]any) *time.Time {
	if at := parseTime(payload["createdAt"]); at != nil {
		return at
	}
	return parseTime(payload["created_at"])
}

func humanitixPurchaserName(payload map[string]any) *string {
	if name := derivedName(stringField(payload, "name"), stringField(payload, "firstName"), stringField(payload, "lastName")); name != nil {
		return name
	}
	customer := mapField(payload, "customer")
	return derivedName(stringField(customer, "name"), stringField(customer, "firstName"), stringField(customer, "lastName"))
}

func humanitixPurchaserEmail(payload map[string]any) *string {
	if email := strPtr(stringField(payload, "email")); email != nil {
		return email
	}
	return strPtr(stringField(mapField(payload, "customer"), "email"))
}

func humanitixTicketQuantity(payload map[string]any) *int64 {
	if qty := intField(payload["quantity"]); qty != nil {
		return qty
	}
	tickets := sliceField(payload, "tickets")
	if len(tickets) == 0 {
		return nil
	}
	// each entry counts once unless it carries its own quantity
	var total int64
	for _, raw := range tickets {
		ticket, _ := raw.(map[string]any)
		if qty := intField(ticket["quantity"]); qty != nil && *qty > 0 {
			total += *qty
			continue
		}
		total++
	}
	return &total
}

func applyHumanitixEvent(order *models.UnifiedOrder, event map[string]any) {
	if event == nil {
		return
	}
	order.EventName = strPtr(stringField(event, "name"))
	order.EventStartDate = parseTime(event["startDate"])
	if order.EventStartDate == nil {
		order.EventStartDate = parseTime(event["date"])
	}
	if order.EventSourceID == "" {
		order.EventSourceID = stringField(event, "_id")
	}
	if order.EventSourceID == "" {
		order.EventSourceID = stringField(event, "id")
	}

	location := mapField(event, "eventLocation")
	order.VenueName = strPtr(stringField(location, "venueName"))
	if order.VenueName == nil {
		order.VenueName = strPtr(stringField(location, "venue"))
	}
	if order.VenueName == nil {
		order.VenueName = strPtr(stringField(mapField(event, "venue"), "name"))
	}
	order.VenueCity = strPtr(stringField(location, "city"))

	if classification := mapField(event, "classification"); classification != nil {
		order.EventCategory = strPtr(stringField(classification, "category"))
	}
	if order.EventCategory == nil {
		order.EventCategory = strPtr(stringField(event, "category"))
	}
}
