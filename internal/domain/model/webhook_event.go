//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// WebhookTopic identifies the storefront event carried by a webhook
// delivery.
type WebhookTopic string

const (
	WebhookTopicCustomersCreate WebhookTopic = "customers/create"
	WebhookTopicCustomersUpdate WebhookTopic = "customers/update"
	WebhookTopicCustomersDelete WebhookTopic = "customers/delete"
	WebhookTopicCustomersRedact WebhookTopic = "customers/redact"
)

// Valid reports whether the topic is one this service processes.
func (t WebhookTopic) Valid() bool {
	switch t {
	case WebhookTopicCustomersCreate, WebhookTopicCustomersUpdate,
		WebhookTopicCustomersDelete, WebhookTopicCustomersRedact:
		return true
	default:
		return false
	}
}

// ParseWebhookTopic normalizes a topic header value and reports whether it
// is supported.
func ParseWebhookTopic(value string) (WebhookTopic, bool) {
	topic := WebhookTopic(strings.ToLower(strings.TrimSpace(value)))
	if topic.Valid() {
		return topic, true
	}
	return "", false
}

// WebhookEvent records one processed webhook delivery. The host platform
// retries deliveries, so the delivery ID is used as an idempotency key:
// a second insert with the same ID is a no-op.
type WebhookEvent struct {
	DeliveryID  string       `json:"delivery_id"  db:"delivery_id"`
	Topic       WebhookTopic `json:"topic"        db:"topic"`
	ShopDomain  string       `json:"shop_domain"  db:"shop_domain"`
	ProcessedAt time.Time    `json:"processed_at" db:"processed_at"`
}

// Validate validates a WebhookEvent before it is recorded.
func (e *WebhookEvent) Validate() error {
	if strings.TrimSpace(e.DeliveryID) == "" {
		return errors.New("delivery_id is required")
	}
	if !e.Topic.Valid() {
		return errors.New("unsupported webhook topic")
	}
	return nil
}
