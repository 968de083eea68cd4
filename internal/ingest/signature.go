package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/chillz-id/ticketsync/pkg/enums"
	pkgerrors "github.com/chillz-id/ticketsync/pkg/errors"
)

// Header names each platform uses for its delivery signature.
const (
	HumanitixSignatureHeader  = "X-Humanitix-Signature"
	EventbriteSignatureHeader = "X-Eventbrite-Signature"
)

// Credential carries what a platform needs to verify a delivery. EndpointURL
// is only meaningful for Eventbrite, whose scheme hashes the webhook endpoint
// rather than the request body.
type Credential struct {
	Secret      string
	EndpointURL string
}

// VerifySignature checks a webhook delivery signature. An empty secret means
// verification is not configured for the platform and the delivery is
// accepted; callers should log that escape hatch. A configured secret with a
// missing or mismatched header fails with CodeUnauthorized.
func VerifySignature(platform enums.Platform, body []byte, header string, cred Credential) error {
	if cred.Secret == "" {
		return nil
	}
	if header == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing")
	}

	switch platform {
	case enums.PlatformHumanitix:
		return verifyHumanitix(body, header, cred.Secret)
	case enums.PlatformEventbrite:
		return verifyEventbrite(header, cred.EndpointURL, cred.Secret)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown webhook platform")
	}
}

// Humanitix signs the raw request body with HMAC-SHA256, hex encoded.
func verifyHumanitix(body []byte, header, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(header)) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}

// Eventbrite does not sign the body; the delivery carries a SHA-256 digest of
// the subscribed endpoint URL concatenated with the shared secret.
func verifyEventbrite(header, endpointURL, secret string) error {
	sum := sha256.Sum256([]byte(endpointURL + secret))
	expected := hex.EncodeToString(sum[:])
	if !hmac.Equal([]byte(expected), []byte(header)) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}
