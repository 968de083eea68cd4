package reconcile

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/chillz-id/ticketsync/internal/store"
	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

type aggregateReader interface {
	EventAggregates(ctx context.Context, filter store.AggregateFilter) ([]store.EventAggregate, error)
}

// KeyFunc derives the cross-platform matching key for an event. Platforms
// never share identifiers, so matching is by normalized name and date.
type KeyFunc func(name string, start *time.Time) string

// DefaultKey lower-cases and trims the event name and appends the start date.
// Events with no start date still group by name alone.
func DefaultKey(name string, start *time.Time) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if start != nil {
		key += "|" + start.UTC().Format("2006-01-02")
	}
	return key
}

// PlatformMetrics is one platform's contribution to a matched event.
type PlatformMetrics struct {
	EventSourceID string `json:"event_source_id"`
	Orders        int64  `json:"orders"`
	Tickets       int64  `json:"tickets"`
	RevenueCents  int64  `json:"revenue_cents"`
	NetSalesCents int64  `json:"net_sales_cents"`
	FeesCents     int64  `json:"fees_cents"`
}

// CombinedEventMetrics totals one event across platforms. Sums are naive:
// platforms report independently and the same buyer may appear on both sides.
type CombinedEventMetrics struct {
	Key                 string                              `json:"key"`
	EventName           string                              `json:"event_name"`
	EventStartDate      *time.Time                          `json:"event_start_date,omitempty"`
	Platforms           map[enums.Platform]PlatformMetrics  `json:"platforms"`
	TotalOrders         int64                               `json:"total_orders"`
	TotalTickets        int64                               `json:"total_tickets"`
	TotalRevenueCents   int64                               `json:"total_revenue_cents"`
	TotalNetSalesCents  int64                               `json:"total_net_sales_cents"`
	TotalFeesCents      int64                               `json:"total_fees_cents"`
	PossibleDuplicateOf string                              `json:"possible_duplicate_of,omitempty"`
}

// PlatformTotals rolls a whole platform up across all its events.
type PlatformTotals struct {
	Platform      enums.Platform `json:"platform"`
	Events        int64          `json:"events"`
	Orders        int64          `json:"orders"`
	Tickets       int64          `json:"tickets"`
	RevenueCents  int64          `json:"revenue_cents"`
	NetSalesCents int64          `json:"net_sales_cents"`
	FeesCents     int64          `json:"fees_cents"`
}

// Engine matches per-platform aggregates into cross-platform metrics. It
// reads derived aggregates on demand and holds no state of its own.
type Engine struct {
	aggregates aggregateReader
	key        KeyFunc
}

func NewEngine(aggregates aggregateReader, key KeyFunc) (*Engine, error) {
	if aggregates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "aggregate reader required")
	}
	if key == nil {
		key = DefaultKey
	}
	return &Engine{aggregates: aggregates, key: key}, nil
}

// CombinedEventMetrics groups aggregates by matching key, sorted by combined
// revenue descending.
func (e *Engine) CombinedEventMetrics(ctx context.Context, filter store.AggregateFilter) ([]CombinedEventMetrics, error) {
	aggregates, err := e.aggregates.EventAggregates(ctx, filter)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*CombinedEventMetrics)
	for _, agg := range aggregates {
		key := e.key(agg.EventName, agg.EventStartDate)
		if strings.TrimSpace(agg.EventName) == "" {
			key = unnamedKey(agg.Source, agg.EventSourceID)
		}
		combined, ok := grouped[key]
		if !ok {
			combined = &CombinedEventMetrics{
				Key:            key,
				EventName:      agg.EventName,
				EventStartDate: agg.EventStartDate,
				Platforms:      make(map[enums.Platform]PlatformMetrics),
			}
			grouped[key] = combined
		}
		if combined.EventName == "" {
			combined.EventName = agg.EventName
		}

		metrics := combined.Platforms[agg.Source]
		metrics.EventSourceID = agg.EventSourceID
		metrics.Orders += agg.Orders
		metrics.Tickets += agg.Tickets
		metrics.RevenueCents += agg.RevenueCents
		metrics.NetSalesCents += agg.NetSalesCents
		metrics.FeesCents += agg.FeesCents
		combined.Platforms[agg.Source] = metrics

		combined.TotalOrders += agg.Orders
		combined.TotalTickets += agg.Tickets
		combined.TotalRevenueCents += agg.RevenueCents
		combined.TotalNetSalesCents += agg.NetSalesCents
		combined.TotalFeesCents += agg.FeesCents
	}

	results := make([]CombinedEventMetrics, 0, len(grouped))
	for _, combined := range grouped {
		results = append(results, *combined)
	}
	flagNearDuplicates(results)

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalRevenueCents != results[j].TotalRevenueCents {
			return results[i].TotalRevenueCents > results[j].TotalRevenueCents
		}
		return results[i].Key < results[j].Key
	})
	return results, nil
}

// PlatformTotals rolls every platform up across its events.
func (e *Engine) PlatformTotals(ctx context.Context, filter store.AggregateFilter) ([]PlatformTotals, error) {
	aggregates, err := e.aggregates.EventAggregates(ctx, filter)
	if err != nil {
		return nil, err
	}

	totals := make(map[enums.Platform]*PlatformTotals)
	for _, agg := range aggregates {
		rollup, ok := totals[agg.Source]
		if !ok {
			rollup = &PlatformTotals{Platform: agg.Source}
			totals[agg.Source] = rollup
		}
		rollup.Events++
		rollup.Orders += agg.Orders
		rollup.Tickets += agg.Tickets
		rollup.RevenueCents += agg.RevenueCents
		rollup.NetSalesCents += agg.NetSalesCents
		rollup.FeesCents += agg.FeesCents
	}

	results := make([]PlatformTotals, 0, len(totals))
	for _, rollup := range totals {
		results = append(results, *rollup)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Platform < results[j].Platform })
	return results, nil
}

// unnamedKey keeps aggregates without an event name apart. Name and date are
// the only cross-platform handles, so a blank name can never match anything.
func unnamedKey(source enums.Platform, eventSourceID string) string {
	return "unnamed:" + string(source) + ":" + eventSourceID
}

// flagNearDuplicates marks groups whose keys differ only by punctuation or
// whitespace. Flagged groups are never merged automatically; an operator
// decides whether they are the same event.
func flagNearDuplicates(results []CombinedEventMetrics) {
	collapsed := make(map[string]string)
	indexByKey := make(map[string]int, len(results))
	keys := make([]string, 0, len(results))
	for i, result := range results {
		if strings.HasPrefix(result.Key, "unnamed:") {
			continue
		}
		indexByKey[result.Key] = i
		keys = append(keys, result.Key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		c := collapseKey(key)
		if original, ok := collapsed[c]; ok && original != key {
			results[indexByKey[key]].PossibleDuplicateOf = original
			continue
		}
		collapsed[c] = key
	}
}

func collapseKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r == '|' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
