package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// timeLayouts are tried in order when a platform timestamp is not RFC3339.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func mapField(payload map[string]any, key string) map[string]any {
	if payload == nil {
		return nil
	}
	if v, ok := payload[key].(map[string]any); ok {
		return v
	}
	return nil
}

func sliceField(payload map[string]any, key string) []any {
	if payload == nil {
		return nil
	}
	if v, ok := payload[key].([]any); ok {
		return v
	}
	return nil
}

func strPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// asDecimal coerces the JSON value into a decimal. Unparsable values return
// false so callers can keep null distinct from zero.
func asDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || strings.EqualFold(trimmed, "null") {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// majorCents converts a major-unit amount (dollars) into integer cents,
// rounding half up rather than truncating.
func majorCents(value any) *int64 {
	d, ok := asDecimal(value)
	if !ok {
		return nil
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return &cents
}

// minorCents reads an amount already expressed in minor units.
func minorCents(value any) *int64 {
	d, ok := asDecimal(value)
	if !ok {
		return nil
	}
	cents := d.Round(0).IntPart()
	return &cents
}

// orZero collapses an absent amount to zero. Fee and tax aggregates use this
// so net arithmetic stays well-defined.
func orZero(cents *int64) int64 {
	if cents == nil {
		return 0
	}
	return *cents
}

func intField(value any) *int64 {
	d, ok := asDecimal(value)
	if !ok {
		return nil
	}
	n := d.IntPart()
	return &n
}

// parseTime converts any parseable absolute timestamp into UTC. Garbage,
// empty strings, and the "null" literal all map to nil, never an error.
func parseTime(value any) *time.Time {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || strings.EqualFold(trimmed, "null") {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
		if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil && millis > 0 {
			t := time.UnixMilli(millis).UTC()
			return &t
		}
		return nil
	case float64:
		if v <= 0 {
			return nil
		}
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	default:
		return nil
	}
}

// netCents computes max(gross - fees - taxes, 0), nil when gross is unknown.
func netCents(gross *int64, fees, taxes int64) *int64 {
	if gross == nil {
		return nil
	}
	net := *gross - fees - taxes
	if net < 0 {
		net = 0
	}
	return &net
}

// derivedName prefers a combined name field and falls back to first+last.
// An empty result resolves to nil, not empty string.
func derivedName(combined, first, last string) *string {
	if name := strings.TrimSpace(combined); name != "" {
		return &name
	}
	joined := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if joined == "" {
		return nil
	}
	return &joined
}
