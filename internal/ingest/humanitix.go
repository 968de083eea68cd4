package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/chillz-id/ticketsync/internal/normalize"
	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/types"
)

type HumanitixServiceParams struct {
	Orders     orderWriter
	SyncStates syncStateWriter
	Logs       webhookLogAppender
	Logger     *logger.Logger
}

// HumanitixService processes Humanitix webhook deliveries. Humanitix sends
// the complete order in the payload, so no enrichment fetch is needed.
type HumanitixService struct {
	orders     orderWriter
	syncStates syncStateWriter
	logs       webhookLogAppender
	logg       *logger.Logger
}

func NewHumanitixService(params HumanitixServiceParams) (*HumanitixService, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	if params.SyncStates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync state repository required")
	}
	return &HumanitixService{
		orders:     params.Orders,
		syncStates: params.SyncStates,
		logs:       params.Logs,
		logg:       params.Logger,
	}, nil
}

// HandleDelivery dispatches a verified delivery by event type and appends the
// webhook log entry regardless of outcome. Deliveries that fail validation
// are logged unprocessed and acknowledged so Humanitix stops redelivering.
func (s *HumanitixService) HandleDelivery(ctx context.Context, payload types.JSONMap, signature string) (*Result, error) {
	eventType := stringAt(payload, "event_type")
	if eventType == "" {
		eventType = stringAt(payload, "event")
	}
	if eventType == "" {
		eventType = stringAt(payload, "eventType")
	}

	result, err := s.dispatch(ctx, eventType, payload)
	logDelivery(ctx, s.logg, s.logs, enums.PlatformHumanitix, eventType, payload, signature, err)
	if err != nil {
		return acknowledgeValidation(err)
	}
	return result, nil
}

func (s *HumanitixService) dispatch(ctx context.Context, eventType string, payload types.JSONMap) (*Result, error) {
	data := humanitixOrderPayload(payload)

	switch strings.ToLower(eventType) {
	case "order.created", "order.updated":
		return s.upsertOrder(ctx, data)
	case "order.cancelled", "order.refunded":
		return s.applyRefund(ctx, eventType, data)
	case "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event type missing")
	default:
		return skipped("event type " + eventType + " not handled"), nil
	}
}

// humanitixOrderPayload extracts the order map from a delivery. Webhooks nest
// the order under data.order with the event as a sibling; backfilled and older
// payloads carry the order fields directly under data. The sibling event is
// grafted onto a copy of the order so the mapper sees its attributes.
func humanitixOrderPayload(payload types.JSONMap) map[string]any {
	data, _ := payload["data"].(map[string]any)
	if data == nil {
		return nil
	}
	order, _ := data["order"].(map[string]any)
	if order == nil {
		return data
	}
	event, ok := data["event"].(map[string]any)
	if !ok {
		return order
	}
	if _, exists := order["event"]; exists {
		return order
	}
	merged := make(map[string]any, len(order)+1)
	for k, v := range order {
		merged[k] = v
	}
	merged["event"] = event
	return merged
}

func (s *HumanitixService) upsertOrder(ctx context.Context, data map[string]any) (*Result, error) {
	order := normalize.Order(enums.PlatformHumanitix, data)
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order payload missing identifier")
	}

	if _, err := s.orders.UpsertOrders(ctx, []*models.UnifiedOrder{order}); err != nil {
		return nil, err
	}
	s.markWebhookReceived(ctx, order.EventSourceID)
	return processed("order " + order.SourceID + " stored"), nil
}

func (s *HumanitixService) applyRefund(ctx context.Context, eventType string, data map[string]any) (*Result, error) {
	order := normalize.Order(enums.PlatformHumanitix, data)
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order payload missing identifier")
	}

	update := refundUpdateFrom(order, strings.HasSuffix(eventType, "cancelled"))
	err := s.orders.ApplyRefund(ctx, enums.PlatformHumanitix, order.SourceID, update)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		// refund for an order we never saw; the payload is complete, store it
		if _, upsertErr := s.orders.UpsertOrders(ctx, []*models.UnifiedOrder{order}); upsertErr != nil {
			return nil, upsertErr
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	s.markWebhookReceived(ctx, order.EventSourceID)
	return processed("refund applied to order " + order.SourceID), nil
}

func (s *HumanitixService) markWebhookReceived(ctx context.Context, eventSourceID string) {
	if eventSourceID == "" {
		return
	}
	if err := s.syncStates.MarkWebhookReceived(ctx, eventSourceID, enums.PlatformHumanitix, time.Now().UTC()); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithEventID(ctx, eventSourceID), "webhook.sync_state_update_failed", err)
	}
}

// refundUpdateFrom derives the partial update for a refund or cancellation
// from the normalized payload. Amount falls back to the order total when the
// payload does not itemize refunds.
func refundUpdateFrom(order *models.UnifiedOrder, cancelled bool) store.RefundUpdate {
	update := store.RefundUpdate{
		Status:          enums.OrderStatusRefunded,
		FinancialStatus: enums.FinancialStatusRefunded,
		RefundStatus:    enums.RefundStatusFull,
		AmountCents:     order.RefundAmountCents,
		RefundedAt:      time.Now().UTC(),
	}
	if cancelled {
		update.Status = enums.OrderStatusCancelled
	}
	if update.AmountCents == nil {
		update.AmountCents = order.TotalCents
	}
	if order.TotalCents != nil && update.AmountCents != nil && *update.AmountCents < *order.TotalCents {
		update.RefundStatus = enums.RefundStatusPartial
		update.FinancialStatus = enums.FinancialStatusPartiallyRefunded
	}
	if order.RefundedAt != nil {
		update.RefundedAt = *order.RefundedAt
	}
	return update
}
