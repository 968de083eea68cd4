package humanitix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.humanitix.com/v1"
	defaultPageSize            = 100
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("humanitix api key is required")

// Client wraps the Humanitix public API used for backfill and enrichment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
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

// WithPageSize overrides the page size used on list endpoints.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient builds the Humanitix client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		pageSize:   defaultPageSize,
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

// Page holds one page of list results plus pagination state.
type Page struct {
	Items   []map[string]any
	Page    int
	HasMore bool
}

type listEnvelope struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Events   []map[string]any `json:"events"`
	Orders   []map[string]any `json:"orders"`
}

// ListEvents fetches one page of the account's events.
func (c *Client) ListEvents(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	endpoint := c.buildURL("events", url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(c.pageSize)},
	})
	env, err := c.getList(ctx, endpoint, "list events")
	if err != nil {
		return nil, err
	}
	return c.pageFrom(env.Events, page, env.Total), nil
}

// GetEvent fetches the canonical event detail, including venue data that the
// list endpoint omits.
func (c *Client) GetEvent(ctx context.Context, eventID string) (map[string]any, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event ID is required")
	}
	endpoint := c.buildURL("events/"+url.PathEscape(trimmed), nil)

	var detail map[string]any
	if err := c.getJSON(ctx, endpoint, "get event", &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListOrders fetches one page of an event's orders.
func (c *Client) ListOrders(ctx context.Context, eventID string, page int) (*Page, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event ID is required")
	}
	if page < 1 {
		page = 1
	}
	endpoint := c.buildURL(fmt.Sprintf("events/%s/orders", url.PathEscape(trimmed)), url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(c.pageSize)},
	})
	env, err := c.getList(ctx, endpoint, "list orders")
	if err != nil {
		return nil, err
	}
	return c.pageFrom(env.Orders, page, env.Total), nil
}

func (c *Client) pageFrom(items []map[string]any, page, total int) *Page {
	hasMore := len(items) == c.pageSize
	if total > 0 {
		hasMore = page*c.pageSize < total
	}
	return &Page{Items: items, Page: page, HasMore: hasMore}
}

func (c *Client) getList(ctx context.Context, endpoint, op string) (*listEnvelope, error) {
	var env listEnvelope
	if err := c.getJSON(ctx, endpoint, op, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, op string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "humanitix client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build "+op+" request")
	}
	req.Header.Set("x-api-key", c.apiKey)
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
