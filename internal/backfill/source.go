package backfill

import (
	"context"
	"strconv"

	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/eventbrite"
	"github.com/chillz-id/ticketsync/pkg/humanitix"
)

// OrdersPage is one page of raw order payloads plus the cursor for the next
// fetch. Cursor semantics are platform-specific: Humanitix pages by number,
// Eventbrite by continuation token.
type OrdersPage struct {
	Orders  []map[string]any
	Next    string
	HasMore bool
}

// EventIDPage is one page of live event IDs plus the cursor for the next
// fetch. The runner paginates so its rate limiter gates every API call.
type EventIDPage struct {
	IDs     []string
	Next    string
	HasMore bool
}

// PlatformSource abstracts one ticketing platform for the backfill runner.
type PlatformSource interface {
	Platform() enums.Platform
	ListEventIDs(ctx context.Context, cursor string) (*EventIDPage, error)
	EventDetail(ctx context.Context, eventID string) (map[string]any, error)
	Orders(ctx context.Context, eventID, cursor string) (*OrdersPage, error)
}

type humanitixSource struct {
	client *humanitix.Client
}

// NewHumanitixSource adapts the Humanitix API client to the runner.
func NewHumanitixSource(client *humanitix.Client) (PlatformSource, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "humanitix client required")
	}
	return &humanitixSource{client: client}, nil
}

func (s *humanitixSource) Platform() enums.Platform { return enums.PlatformHumanitix }

func (s *humanitixSource) ListEventIDs(ctx context.Context, cursor string) (*EventIDPage, error) {
	page := 1
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid page cursor")
		}
		page = parsed
	}

	result, err := s.client.ListEvents(ctx, page)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, event := range result.Items {
		if id, ok := event["_id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return &EventIDPage{
		IDs:     ids,
		Next:    strconv.Itoa(result.Page + 1),
		HasMore: result.HasMore,
	}, nil
}

func (s *humanitixSource) EventDetail(ctx context.Context, eventID string) (map[string]any, error) {
	return s.client.GetEvent(ctx, eventID)
}

func (s *humanitixSource) Orders(ctx context.Context, eventID, cursor string) (*OrdersPage, error) {
	page := 1
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid page cursor")
		}
		page = parsed
	}

	result, err := s.client.ListOrders(ctx, eventID, page)
	if err != nil {
		return nil, err
	}
	return &OrdersPage{
		Orders:  result.Items,
		Next:    strconv.Itoa(result.Page + 1),
		HasMore: result.HasMore,
	}, nil
}

type eventbriteSource struct {
	client         *eventbrite.Client
	organizationID string
}

// NewEventbriteSource adapts the Eventbrite API client to the runner. The
// organization ID scopes event enumeration; an empty one limits the run to
// events already present in the store.
func NewEventbriteSource(client *eventbrite.Client, organizationID string) (PlatformSource, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "eventbrite client required")
	}
	return &eventbriteSource{client: client, organizationID: organizationID}, nil
}

func (s *eventbriteSource) Platform() enums.Platform { return enums.PlatformEventbrite }

func (s *eventbriteSource) ListEventIDs(ctx context.Context, cursor string) (*EventIDPage, error) {
	if s.organizationID == "" {
		return &EventIDPage{}, nil
	}
	result, err := s.client.ListOrganizationEvents(ctx, s.organizationID, cursor)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, event := range result.Events {
		if id, ok := event["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return &EventIDPage{
		IDs:     ids,
		Next:    result.Continuation,
		HasMore: result.HasMore,
	}, nil
}

func (s *eventbriteSource) EventDetail(ctx context.Context, eventID string) (map[string]any, error) {
	return s.client.GetEvent(ctx, eventID)
}

func (s *eventbriteSource) Orders(ctx context.Context, eventID, cursor string) (*OrdersPage, error) {
	result, err := s.client.ListOrders(ctx, eventID, cursor)
	if err != nil {
		return nil, err
	}
	return &OrdersPage{
		Orders:  result.Orders,
		Next:    result.Continuation,
		HasMore: result.HasMore,
	}, nil
}
