package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chillz-id/ticketsync/internal/ingest"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
	"github.com/chillz-id/ticketsync/pkg/types"
)

type fakeDeliveryService struct {
	calls   int
	payload types.JSONMap
	result  *ingest.Result
	err     error
}

func (f *fakeDeliveryService) HandleDelivery(_ context.Context, payload types.JSONMap, _ string) (*ingest.Result, error) {
	f.calls++
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ingest.Result{Outcome: ingest.OutcomeProcessed, Message: "ok"}, nil
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHumanitixWebhookProcessesSignedDelivery(t *testing.T) {
	svc := &fakeDeliveryService{}
	handler := Humanitix(svc, "topsecret", nil, nil)

	body := []byte(`{"event":"order.created","data":{"_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader(body))
	req.Header.Set(ingest.HumanitixSignatureHeader, signBody(body, "topsecret"))
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d: %s", w.Code, w.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected service invoked once, got %d", svc.calls)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Message == "" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestHumanitixWebhookRejectsBadSignatureWithoutProcessing(t *testing.T) {
	svc := &fakeDeliveryService{}
	handler := Humanitix(svc, "topsecret", nil, nil)

	body := []byte(`{"event":"order.created","data":{"_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader(body))
	req.Header.Set(ingest.HumanitixSignatureHeader, "deadbeef")
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("rejected delivery must never reach the service")
	}
}

func TestHumanitixWebhookAcceptsWhenNoSecretConfigured(t *testing.T) {
	svc := &fakeDeliveryService{}
	handler := Humanitix(svc, "", nil, nil)

	body := []byte(`{"event":"order.created","data":{"_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("expected service invoked")
	}
}

func TestHumanitixWebhookStoreFailureReturns500(t *testing.T) {
	svc := &fakeDeliveryService{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	handler := Humanitix(svc, "", nil, nil)

	body := []byte(`{"event":"order.created","data":{"_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for store failure but got %d", w.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected internal error payload, got %+v", envelope.Error)
	}
}

func TestHumanitixWebhookUpstreamFailureReturns502(t *testing.T) {
	svc := &fakeDeliveryService{err: pkgerrors.New(pkgerrors.CodeUpstream, "platform returned 503")}
	handler := Humanitix(svc, "", nil, nil)

	body := []byte(`{"event":"order.created","data":{"_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for upstream failure but got %d", w.Code)
	}
}

func TestHumanitixWebhookAcknowledgesMalformedJSON(t *testing.T) {
	svc := &fakeDeliveryService{result: &ingest.Result{Outcome: ingest.OutcomeSkipped, Message: "ignored: event type missing"}}
	handler := Humanitix(svc, "", nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/humanitix", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("malformed payload must be acknowledged, got %d", w.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("malformed payload must still reach the service for logging")
	}
	if len(svc.payload) != 0 {
		t.Fatalf("expected empty payload dispatched, got %v", svc.payload)
	}
}

func TestEventbriteWebhookVerifiesEndpointHash(t *testing.T) {
	endpoint := "https://sync.example.com/api/v1/webhooks/eventbrite"
	secret := "shh"
	sum := sha256.Sum256([]byte(endpoint + secret))
	valid := hex.EncodeToString(sum[:])

	svc := &fakeDeliveryService{result: &ingest.Result{Outcome: ingest.OutcomeSkipped, Message: "action attendee.updated not handled"}}
	handler := Eventbrite(svc, secret, endpoint, nil, nil)

	body := []byte(`{"config":{"action":"attendee.updated"},"api_url":"https://www.eventbriteapi.com/v3/attendees/1/"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/eventbrite", bytes.NewReader(body))
	req.Header.Set(ingest.EventbriteSignatureHeader, valid)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for skipped action but got %d", w.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("skipped deliveries must still acknowledge success")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/eventbrite", bytes.NewReader(body))
	req.Header.Set(ingest.EventbriteSignatureHeader, "bogus")
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature but got %d", w.Code)
	}
}
