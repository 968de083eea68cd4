package eventbrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

const (
	defaultBaseURL              = "https://www.eventbriteapi.com/v3"
	orderExpansions             = "attendees,event"
	eventExpansions             = "venue"
	responseBodyReadLimit int64 = 1024
)

var errTokenRequired = errors.New("eventbrite api token is required")

// Client wraps the Eventbrite v3 API used for backfill and webhook enrichment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Eventbrite client given an OAuth token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// OrdersPage holds one page of orders plus the continuation cursor.
type OrdersPage struct {
	Orders       []map[string]any
	HasMore      bool
	Continuation string
}

type ordersEnvelope struct {
	Orders     []map[string]any `json:"orders"`
	Pagination struct {
		HasMoreItems bool   `json:"has_more_items"`
		Continuation string `json:"continuation"`
	} `json:"pagination"`
}

type eventsEnvelope struct {
	Events     []map[string]any `json:"events"`
	Pagination struct {
		HasMoreItems bool   `json:"has_more_items"`
		Continuation string `json:"continuation"`
	} `json:"pagination"`
}

// ListOrders fetches one page of an event's orders, expanded with attendee and
// event data. Pass an empty continuation for the first page.
func (c *Client) ListOrders(ctx context.Context, eventID, continuation string) (*OrdersPage, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event ID is required")
	}

	query := url.Values{"expand": {orderExpansions}}
	if continuation != "" {
		query.Set("continuation", continuation)
	}
	endpoint := c.buildURL(fmt.Sprintf("events/%s/orders/", url.PathEscape(trimmed)), query)

	var env ordersEnvelope
	if err := c.getJSON(ctx, endpoint, "list orders", &env); err != nil {
		return nil, err
	}
	return &OrdersPage{
		Orders:       env.Orders,
		HasMore:      env.Pagination.HasMoreItems,
		Continuation: env.Pagination.Continuation,
	}, nil
}

// EventsPage holds one page of events plus the continuation cursor.
type EventsPage struct {
	Events       []map[string]any
	HasMore      bool
	Continuation string
}

// ListOrganizationEvents fetches one page of the organization's events.
func (c *Client) ListOrganizationEvents(ctx context.Context, organizationID, continuation string) (*EventsPage, error) {
	trimmed := strings.TrimSpace(organizationID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization ID is required")
	}

	query := url.Values{}
	if continuation != "" {
		query.Set("continuation", continuation)
	}
	endpoint := c.buildURL(fmt.Sprintf("organizations/%s/events/", url.PathEscape(trimmed)), query)

	var env eventsEnvelope
	if err := c.getJSON(ctx, endpoint, "list organization events", &env); err != nil {
		return nil, err
	}
	return &EventsPage{
		Events:       env.Events,
		HasMore:      env.Pagination.HasMoreItems,
		Continuation: env.Pagination.Continuation,
	}, nil
}

// GetEvent fetches the canonical event detail with its venue expanded.
func (c *Client) GetEvent(ctx context.Context, eventID string) (map[string]any, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event ID is required")
	}
	endpoint := c.buildURL(fmt.Sprintf("events/%s/", url.PathEscape(trimmed)), url.Values{"expand": {eventExpansions}})

	var detail map[string]any
	if err := c.getJSON(ctx, endpoint, "get event", &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetOrderByURL fetches an order detail from the api_url a webhook delivered,
// expanded with attendee and event data. The URL must live under the
// configured API base.
func (c *Client) GetOrderByURL(ctx context.Context, apiURL string) (map[string]any, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order api_url is required")
	}
	if !strings.HasPrefix(trimmed, strings.TrimRight(c.baseURL, "/")) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order api_url is outside the configured API base")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order api_url")
	}
	query := parsed.Query()
	query.Set("expand", orderExpansions)
	parsed.RawQuery = query.Encode()

	var detail map[string]any
	if err := c.getJSON(ctx, parsed.String(), "get order", &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, op string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "eventbrite client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build "+op+" request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode "+op+" response")
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	full := fmt.Sprintf("%s/%s", trimmed, path)
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}
