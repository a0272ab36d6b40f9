package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xwanai/shopify-sso-bridge/internal/data/pgxutil"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	apperrors "github.com/xwanai/shopify-sso-bridge/internal/errors"
)

// WebhookEventRepo tracks processed webhook deliveries so retried
// deliveries from the platform are applied at most once.
type WebhookEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewWebhookEventRepo creates a new WebhookEventRepo with real time provider.
func NewWebhookEventRepo(db *sql.DB) *WebhookEventRepo {
	return &WebhookEventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewWebhookEventRepoWithTimeProvider creates a new WebhookEventRepo with a custom time provider (useful for tests).
func NewWebhookEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *WebhookEventRepo {
	return &WebhookEventRepo{DB: db, timeProvider: tp}
}

// Record stores the delivery and reports whether it was first-seen. A
// duplicate delivery ID hits the conflict clause and returns false.
func (r *WebhookEventRepo) Record(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	if event == nil {
		return false, apperrors.Validation("webhook event is required")
	}
	if err := event.Validate(); err != nil {
		return false, apperrors.Validation(err.Error())
	}

	processedAt := event.ProcessedAt
	if processedAt.IsZero() {
		processedAt = r.timeProvider.Now().UTC()
	}

	var inserted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx, `
			INSERT INTO webhook_events (delivery_id, topic, shop_domain, processed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (delivery_id) DO NOTHING
		`, event.DeliveryID, string(event.Topic), event.ShopDomain, processedAt)
		if execErr != nil {
			return execErr
		}
		inserted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return inserted > 0, nil
}

// PruneOlderThan removes delivery records processed before the cutoff and
// returns how many rows were deleted.
func (r *WebhookEventRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx,
			`DELETE FROM webhook_events WHERE processed_at < $1`, cutoff.UTC())
		if execErr != nil {
			return execErr
		}
		deleted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", err)
	}
	return deleted, nil
}
