package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/chillz-id/ticketsync/api/responses"
	"github.com/chillz-id/ticketsync/internal/ingest"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
	"github.com/chillz-id/ticketsync/pkg/types"
)

type DeliveryService interface {
	HandleDelivery(ctx context.Context, payload types.JSONMap, signature string) (*ingest.Result, error)
}

// Humanitix handles Humanitix order webhooks. Signature failures are rejected
// before the payload is parsed and never reach the webhook log.
func Humanitix(svc DeliveryService, secret string, logg *logger.Logger, wm *metrics.WebhookMetrics) http.HandlerFunc {
	return handler(svc, "humanitix", logg, wm, func(body []byte, r *http.Request) (string, error) {
		signature := r.Header.Get(ingest.HumanitixSignatureHeader)
		err := ingest.VerifySignature("humanitix", body, signature, ingest.Credential{Secret: secret})
		return signature, err
	})
}

func handler(svc DeliveryService, platform string, logg *logger.Logger, wm *metrics.WebhookMetrics, verify func(body []byte, r *http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPlatform(ctx, platform)
		}

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		signature, err := verify(body, r)
		if err != nil {
			if wm != nil {
				wm.Inc(platform, metrics.WebhookOutcomeRejected)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if signature == "" && logg != nil {
			logg.Warn(ctx, "webhook.signature_not_verified")
		}

		// An unparseable body is still dispatched so it lands in the webhook
		// log; the service acknowledges it as skipped.
		payload := types.JSONMap{}
		if err := json.Unmarshal(body, &payload); err != nil && logg != nil {
			logg.Warn(ctx, "webhook.payload_not_json")
		}

		result, err := svc.HandleDelivery(ctx, payload, signature)
		if err != nil {
			if wm != nil {
				wm.Inc(platform, metrics.WebhookOutcomeFailed)
			}
			if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "webhook processing failed")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if wm != nil {
			outcome := metrics.WebhookOutcomeProcessed
			if result.Outcome == ingest.OutcomeSkipped {
				outcome = metrics.WebhookOutcomeSkipped
			}
			wm.Inc(platform, outcome)
		}
		if logg != nil {
			logg.Info(ctx, "webhook."+result.Outcome)
		}
		responses.WriteMessage(w, result.Message)
	}
}
