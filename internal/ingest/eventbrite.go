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

type orderFetcher interface {
	GetOrderByURL(ctx context.Context, apiURL string) (map[string]any, error)
}

type EventbriteServiceParams struct {
	Orders     orderWriter
	SyncStates syncStateWriter
	Logs       webhookLogAppender
	Fetcher    orderFetcher
	Logger     *logger.Logger
}

// EventbriteService processes Eventbrite webhook deliveries. Eventbrite
// payloads carry only an action and an api_url; the order itself is fetched
// from the API before normalization.
type EventbriteService struct {
	orders     orderWriter
	syncStates syncStateWriter
	logs       webhookLogAppender
	fetcher    orderFetcher
	logg       *logger.Logger
}

func NewEventbriteService(params EventbriteServiceParams) (*EventbriteService, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	if params.SyncStates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync state repository required")
	}
	if params.Fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "eventbrite client required")
	}
	return &EventbriteService{
		orders:     params.Orders,
		syncStates: params.SyncStates,
		logs:       params.Logs,
		fetcher:    params.Fetcher,
		logg:       params.Logger,
	}, nil
}

func (s *EventbriteService) HandleDelivery(ctx context.Context, payload types.JSONMap, signature string) (*Result, error) {
	action := stringAt(payload, "config", "action")

	result, err := s.dispatch(ctx, action, payload)
	logDelivery(ctx, s.logg, s.logs, enums.PlatformEventbrite, action, payload, signature, err)
	if err != nil {
		return acknowledgeValidation(err)
	}
	return result, nil
}

func (s *EventbriteService) dispatch(ctx context.Context, action string, payload types.JSONMap) (*Result, error) {
	switch strings.ToLower(action) {
	case "order.placed", "order.updated":
		return s.enrichAndUpsert(ctx, payload)
	case "order.refunded":
		return s.applyRefund(ctx, payload)
	case "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook action missing")
	default:
		// attendee.updated and friends carry nothing the order store needs
		return skipped("action " + action + " not handled"), nil
	}
}

func (s *EventbriteService) enrichAndUpsert(ctx context.Context, payload types.JSONMap) (*Result, error) {
	order, err := s.fetchOrder(ctx, payload)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.UpsertOrders(ctx, []*models.UnifiedOrder{order}); err != nil {
		return nil, err
	}
	s.markWebhookReceived(ctx, order.EventSourceID)
	return processed("order " + order.SourceID + " stored"), nil
}

// applyRefund patches the stored row. Eventbrite refund deliveries do not
// itemize amounts, so a full refund of the stored total is recorded.
func (s *EventbriteService) applyRefund(ctx context.Context, payload types.JSONMap) (*Result, error) {
	order, err := s.fetchOrder(ctx, payload)
	if err != nil {
		return nil, err
	}

	stored, err := s.orders.FindBySourceID(ctx, enums.PlatformEventbrite, order.SourceID)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		// never saw the order; the fetched detail already reflects the refund
		if _, upsertErr := s.orders.UpsertOrders(ctx, []*models.UnifiedOrder{order}); upsertErr != nil {
			return nil, upsertErr
		}
		s.markWebhookReceived(ctx, order.EventSourceID)
		return processed("refunded order " + order.SourceID + " stored"), nil
	}
	if err != nil {
		return nil, err
	}

	update := store.RefundUpdate{
		Status:          enums.OrderStatusRefunded,
		FinancialStatus: enums.FinancialStatusRefunded,
		RefundStatus:    enums.RefundStatusFull,
		AmountCents:     stored.TotalCents,
		RefundedAt:      time.Now().UTC(),
	}
	if err := s.orders.ApplyRefund(ctx, enums.PlatformEventbrite, order.SourceID, update); err != nil {
		return nil, err
	}
	s.markWebhookReceived(ctx, order.EventSourceID)
	return processed("refund applied to order " + order.SourceID), nil
}

func (s *EventbriteService) fetchOrder(ctx context.Context, payload types.JSONMap) (*models.UnifiedOrder, error) {
	apiURL := stringAt(payload, "api_url")
	if apiURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api_url missing from delivery")
	}

	raw, err := s.fetcher.GetOrderByURL(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	order := normalize.Order(enums.PlatformEventbrite, raw)
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "fetched order missing identifier")
	}
	return order, nil
}

func (s *EventbriteService) markWebhookReceived(ctx context.Context, eventSourceID string) {
	if eventSourceID == "" {
		return
	}
	if err := s.syncStates.MarkWebhookReceived(ctx, eventSourceID, enums.PlatformEventbrite, time.Now().UTC()); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithEventID(ctx, eventSourceID), "webhook.sync_state_update_failed", err)
	}
}
