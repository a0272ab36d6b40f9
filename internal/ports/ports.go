// Package ports defines interfaces (hexagonal ports) for session, customer,
// and webhook bookkeeping behavior. Implementations live in
// internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
)

// SessionStore persists and retrieves customer sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// CustomerRepository mirrors storefront customers in local storage.
type CustomerRepository interface {
	// UpsertByEmail creates the customer or refreshes an existing record
	// keyed by email, returning the stored row.
	UpsertByEmail(ctx context.Context, req *model.UpsertCustomerRequest) (*model.Customer, error)

	GetByEmail(ctx context.Context, email string) (*model.Customer, error)

	// DeleteByShopifyCustomerID removes the mirror of a customer deleted or
	// redacted upstream. Deleting an absent customer is not an error.
	DeleteByShopifyCustomerID(ctx context.Context, shopifyCustomerID string) error
}

// WebhookEventRecorder tracks processed webhook deliveries for idempotency.
type WebhookEventRecorder interface {
	// Record stores the delivery and reports whether it was first-seen.
	// A duplicate delivery returns false with no error.
	Record(ctx context.Context, event *model.WebhookEvent) (bool, error)

	// PruneOlderThan removes processed deliveries past the retention window
	// and returns how many rows were deleted.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
