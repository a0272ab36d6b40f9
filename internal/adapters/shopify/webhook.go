package shopify

// Package shopify adapts the storefront platform's webhook surface: header
// conventions and delivery signature verification.

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Webhook header names set by the platform on every delivery.
const (
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
)

// ErrInvalidSignature is returned when a delivery's HMAC does not match the
// shared webhook secret. Callers respond 401 without detail.
var ErrInvalidSignature = errors.New("webhook signature mismatch")

// WebhookVerifier validates delivery signatures. The platform signs the raw
// request body with HMAC-SHA256 under the app's webhook secret and sends the
// tag base64-encoded in the X-Shopify-Hmac-Sha256 header.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier constructs a verifier. The secret must be non-empty;
// an unsigned webhook endpoint would accept forged customer data.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	return &WebhookVerifier{secret: []byte(secret)}, nil
}

// Verify checks the signature header against the raw request body using a
// constant-time comparison.
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}

	received, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(received, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
