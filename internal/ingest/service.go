package ingest

import (
	"context"
	"time"

	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/types"
)

// Outcome of a webhook delivery. Skipped deliveries are still acknowledged
// with 200 so platforms do not retry them.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
)

// Result reports what a delivery handler did with the payload.
type Result struct {
	Outcome string
	Message string
}

func processed(message string) *Result {
	return &Result{Outcome: OutcomeProcessed, Message: message}
}

func skipped(message string) *Result {
	return &Result{Outcome: OutcomeSkipped, Message: message}
}

type orderWriter interface {
	UpsertOrders(ctx context.Context, orders []*models.UnifiedOrder) (int, error)
	ApplyRefund(ctx context.Context, source enums.Platform, sourceID string, update store.RefundUpdate) error
	FindBySourceID(ctx context.Context, source enums.Platform, sourceID string) (*models.UnifiedOrder, error)
}

type syncStateWriter interface {
	MarkWebhookReceived(ctx context.Context, eventSourceID string, platform enums.Platform, at time.Time) error
}

type webhookLogAppender interface {
	Append(ctx context.Context, entry *models.WebhookLog) error
}

// logDelivery records the delivery in the webhook log. Logging is best-effort
// and never turns a processed delivery into a failure.
func logDelivery(ctx context.Context, logg *logger.Logger, logs webhookLogAppender, platform enums.Platform, eventType string, payload types.JSONMap, signature string, handleErr error) {
	if logs == nil {
		return
	}
	entry := &models.WebhookLog{
		Platform:  platform,
		EventType: eventType,
		Payload:   payload,
		Processed: handleErr == nil,
	}
	if signature != "" {
		entry.Signature = &signature
	}
	if handleErr != nil {
		msg := handleErr.Error()
		entry.ErrorMessage = &msg
	}
	if err := logs.Append(ctx, entry); err != nil && logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{"eventType": eventType}), "webhook.log_append_failed")
	}
}

// acknowledgeValidation converts a validation failure into a skipped result.
// Malformed deliveries are dropped and acknowledged after logging so the
// platform does not redeliver them forever.
func acknowledgeValidation(err error) (*Result, error) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		return nil, err
	}
	return skipped("ignored: " + typed.Message()), nil
}

func stringAt(payload map[string]any, keys ...string) string {
	node := payload
	for i, key := range keys {
		value, ok := node[key]
		if !ok {
			return ""
		}
		if i == len(keys)-1 {
			s, _ := value.(string)
			return s
		}
		node, ok = value.(map[string]any)
		if !ok {
			return ""
		}
	}
	return ""
}
