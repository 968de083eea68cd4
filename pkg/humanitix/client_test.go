package humanitix

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientListOrdersRequest(t *testing.T) {
	const expectedURL = "http://humanitix.test/v1/events/evt_1/orders?page=2&pageSize=100"
	respBody := `{"total":250,"page":2,"pageSize":100,"orders":[{"_id":"ord_1"},{"_id":"ord_2"}]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient("test-key", WithBaseURL("http://humanitix.test/v1"), WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	page, err := client.ListOrders(context.Background(), "evt_1", 2)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("x-api-key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if len(page.Items) != 2 {
		t.Fatalf("unexpected items %+v", page.Items)
	}
	if !page.HasMore {
		t.Fatalf("expected has-more with 250 total at page 2 of 100")
	}
}

func TestClientListOrdersLastPage(t *testing.T) {
	respBody := `{"total":201,"page":3,"pageSize":100,"orders":[{"_id":"ord_201"}]}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://humanitix.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	page, err := client.ListOrders(context.Background(), "evt_1", 3)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if page.HasMore {
		t.Fatalf("expected final page to report no more pages")
	}
}

func TestClientGetEventNon2xxIsUpstreamError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader(`{"error":"upstream down"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://humanitix.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.GetEvent(context.Background(), "evt_1"); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
