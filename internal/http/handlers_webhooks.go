package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xwanai/shopify-sso-bridge/internal/adapters/shopify"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	apperrors "github.com/xwanai/shopify-sso-bridge/internal/errors"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
)

// defaultWebhookBodyLimit caps a delivery body. Customer payloads are small;
// anything near this size is not a legitimate delivery.
const defaultWebhookBodyLimit = 1 << 20

// WebhookSyncInterface defines the interface for applying verified deliveries.
type WebhookSyncInterface interface {
	Apply(ctx context.Context, delivery service.WebhookDelivery) (service.SyncOutcome, error)
}

// WebhookVerifierInterface validates the delivery signature header against
// the raw request body.
type WebhookVerifierInterface interface {
	Verify(body []byte, signature string) error
}

// WebhookHandlers provides HTTP handlers for storefront webhook deliveries.
type WebhookHandlers struct {
	Sync        WebhookSyncInterface
	Verifier    WebhookVerifierInterface
	ShopDomains *service.ShopDomainPolicy
	Logger      *slog.Logger
	// MaxBodyBytes overrides the delivery body cap when positive.
	MaxBodyBytes int64
}

func (h *WebhookHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *WebhookHandlers) bodyLimit() int64 {
	if h.MaxBodyBytes > 0 {
		return h.MaxBodyBytes
	}
	return defaultWebhookBodyLimit
}

// Receive handles a storefront webhook delivery.
// POST /webhooks/shopify.
//
// The signature is checked against the raw body before anything is parsed.
// A signature mismatch is a 401 with no detail; a replayed delivery ID is a
// 200 so the platform stops retrying.
func (h *WebhookHandlers) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.bodyLimit()+1))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "unreadable_body",
			Err:     errors.New("could not read request body"),
		})
		return
	}
	if int64(len(body)) > h.bodyLimit() {
		WriteError(w, ErrorParams{
			Code:    http.StatusRequestEntityTooLarge,
			ErrCode: "body_too_large",
			Err:     errors.New("delivery body exceeds limit"),
		})
		return
	}

	if err := h.Verifier.Verify(body, r.Header.Get(shopify.HeaderHmac)); err != nil {
		h.logger().WarnContext(r.Context(), "webhook signature rejected",
			"topic", r.Header.Get(shopify.HeaderTopic),
			"shop_domain", r.Header.Get(shopify.HeaderShopDomain),
		)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_signature",
			Err:     errors.New("invalid webhook signature"),
		})
		return
	}

	deliveryID := r.Header.Get(shopify.HeaderWebhookID)
	rawTopic := r.Header.Get(shopify.HeaderTopic)
	if deliveryID == "" || rawTopic == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_headers",
			Err:     errors.New("delivery id and topic headers are required"),
		})
		return
	}

	topic, ok := model.ParseWebhookTopic(rawTopic)
	if !ok {
		// Acknowledge topics we are not subscribed to so the platform
		// stops retrying them.
		h.logger().InfoContext(r.Context(), "webhook topic ignored",
			"delivery_id", deliveryID,
			"topic", rawTopic,
		)
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	shopDomain := strings.TrimSpace(r.Header.Get(shopify.HeaderShopDomain))
	if h.ShopDomains != nil && !h.ShopDomains.Allowed(shopDomain) {
		h.logger().WarnContext(r.Context(), "webhook from disallowed shop",
			"shop_domain", shopDomain,
			"topic", rawTopic,
		)
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "shop_not_allowed",
			Err:     errors.New("shop domain is not allowed"),
		})
		return
	}

	outcome, err := h.Sync.Apply(r.Context(), service.WebhookDelivery{
		DeliveryID: deliveryID,
		Topic:      topic,
		ShopDomain: shopDomain,
		Payload:    body,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "webhook apply failed",
			"delivery_id", deliveryID,
			"topic", rawTopic,
			"error", err,
		)
		code, errCode := http.StatusInternalServerError, "apply_failed"
		if apperrors.IsValidation(err) {
			// A payload we cannot ever process should not be retried.
			code, errCode = http.StatusUnprocessableEntity, "invalid_payload"
		}
		WriteError(w, ErrorParams{
			Code:    code,
			ErrCode: errCode,
			Err:     errors.New("could not process delivery"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}
