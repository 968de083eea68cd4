// Package normalize maps platform-specific order payloads into the canonical
// UnifiedOrder record. Mapping is pure and deterministic: the same payload
// always produces the same record, malformed input produces nil rather than
// an error, and no mapper ever panics on missing fields.
package normalize

import (
	"github.com/chillz-id/ticketsync/pkg/db/models"
	"github.com/chillz-id/ticketsync/pkg/enums"
)

// Order dispatches to the platform-specific mapper. It returns nil when the
// payload lacks the minimum required identifier; callers drop and log those
// payloads instead of failing the pipeline.
func Order(platform enums.Platform, payload map[string]any) *models.UnifiedOrder {
	if payload == nil {
		return nil
	}
	switch platform {
	case enums.PlatformHumanitix:
		return humanitixOrder(payload)
	case enums.PlatformEventbrite:
		return eventbriteOrder(payload)
	default:
		return nil
	}
}

// Orders maps a batch, silently dropping payloads that do not normalize.
func Orders(platform enums.Platform, payloads []map[string]any) []*models.UnifiedOrder {
	out := make([]*models.UnifiedOrder, 0, len(payloads))
	for _, payload := range payloads {
		if order := Order(platform, payload); order != nil {
			out = append(out, order)
		}
	}
	return out
}
