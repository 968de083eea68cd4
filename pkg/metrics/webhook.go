package metrics

import "github.com/prometheus/client_golang/prometheus"

// Webhook outcome labels.
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeSkipped   = "skipped"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// WebhookMetrics counts inbound webhook events by platform and outcome.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Inbound webhook events by platform and outcome.",
	}, []string{"platform", "outcome"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

// Inc increments the counter for the given platform/outcome pair.
func (w *WebhookMetrics) Inc(platform, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(platform), normalizeLabel(outcome)).Inc()
}
