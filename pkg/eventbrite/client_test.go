package eventbrite

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientListOrdersContinuation(t *testing.T) {
	const expectedFirstURL = "http://eventbrite.test/v3/events/evt_1/orders/?expand=attendees%2Cevent"
	const expectedSecondURL = "http://eventbrite.test/v3/events/evt_1/orders/?continuation=abc&expand=attendees%2Cevent"

	var capturedURLs []string
	var capturedAuth string

	responses := []string{
		`{"orders":[{"id":"1"},{"id":"2"}],"pagination":{"has_more_items":true,"continuation":"abc"}}`,
		`{"orders":[{"id":"3"}],"pagination":{"has_more_items":false}}`,
	}

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURLs = append(capturedURLs, req.URL.String())
		capturedAuth = req.Header.Get("Authorization")
		body := responses[len(capturedURLs)-1]
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-token", WithBaseURL("http://eventbrite.test/v3"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	first, err := client.ListOrders(context.Background(), "evt_1", "")
	if err != nil {
		t.Fatalf("list orders page 1: %v", err)
	}
	if !first.HasMore || first.Continuation != "abc" {
		t.Fatalf("unexpected pagination state %+v", first)
	}

	second, err := client.ListOrders(context.Background(), "evt_1", first.Continuation)
	if err != nil {
		t.Fatalf("list orders page 2: %v", err)
	}
	if second.HasMore {
		t.Fatalf("expected final page")
	}

	if capturedAuth != "Bearer test-token" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}
	if capturedURLs[0] != expectedFirstURL {
		t.Fatalf("unexpected first URL %q", capturedURLs[0])
	}
	if capturedURLs[1] != expectedSecondURL {
		t.Fatalf("unexpected second URL %q", capturedURLs[1])
	}
}

func TestClientGetOrderByURLExpandsAndGuardsBase(t *testing.T) {
	const apiURL = "http://eventbrite.test/v3/orders/12345/"
	respBody := `{"id":"12345","status":"placed"}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-token", WithBaseURL("http://eventbrite.test/v3"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	detail, err := client.GetOrderByURL(context.Background(), apiURL)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if detail["id"] != "12345" {
		t.Fatalf("unexpected order %+v", detail)
	}
	if capturedURL != "http://eventbrite.test/v3/orders/12345/?expand=attendees%2Cevent" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}

	if _, err := client.GetOrderByURL(context.Background(), "http://evil.test/orders/1/"); err == nil {
		t.Fatalf("expected rejection of api_url outside the configured base")
	}
}

func TestClientGetEventExpandsVenue(t *testing.T) {
	respBody := `{"id":"evt_1","venue":{"name":"The Warehouse"}}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-token", WithBaseURL("http://eventbrite.test/v3"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.GetEvent(context.Background(), "evt_1"); err != nil {
		t.Fatalf("get event: %v", err)
	}
	if capturedURL != "http://eventbrite.test/v3/events/evt_1/?expand=venue" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
