package webhooks

import (
	"net/http"

	"github.com/chillz-id/ticketsync/internal/ingest"
	"github.com/chillz-id/ticketsync/pkg/logger"
	"github.com/chillz-id/ticketsync/pkg/metrics"
)

// Eventbrite handles Eventbrite webhook deliveries. The endpoint URL takes
// part in signature verification, so it is injected alongside the secret.
func Eventbrite(svc DeliveryService, secret, endpointURL string, logg *logger.Logger, wm *metrics.WebhookMetrics) http.HandlerFunc {
	return handler(svc, "eventbrite", logg, wm, func(body []byte, r *http.Request) (string, error) {
		signature := r.Header.Get(ingest.EventbriteSignatureHeader)
		err := ingest.VerifySignature("eventbrite", body, signature, ingest.Credential{
			Secret:      secret,
			EndpointURL: endpointURL,
		})
		return signature, err
	})
}
