package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/xwanai/shopify-sso-bridge/internal/data/pgxutil"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	apperrors "github.com/xwanai/shopify-sso-bridge/internal/errors"
)

// CustomerRepo provides database operations for mirrored storefront customers.
type CustomerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCustomerRepo creates a new CustomerRepo with real time provider.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCustomerRepoWithTimeProvider creates a new CustomerRepo with a custom time provider (useful for tests).
func NewCustomerRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CustomerRepo {
	return &CustomerRepo{DB: db, timeProvider: tp}
}

// SQL query constants for static queries (no dynamic WHERE/ORDER BY).
const (
	customerColumns = `id, email, first_name, last_name, shopify_customer_id, shop_domain, created_at, updated_at`

	// Upsert keyed by email. COALESCE keeps previously synced values when the
	// incoming record omits a field, so a sparse SSO claim never erases data
	// a webhook already filled in.
	customerUpsertQuery = `
		INSERT INTO customers (
			email, first_name, last_name, shopify_customer_id, shop_domain, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $6
		)
		ON CONFLICT (email) DO UPDATE SET
			first_name          = COALESCE(EXCLUDED.first_name, customers.first_name),
			last_name           = COALESCE(EXCLUDED.last_name, customers.last_name),
			shopify_customer_id = COALESCE(EXCLUDED.shopify_customer_id, customers.shopify_customer_id),
			shop_domain         = COALESCE(EXCLUDED.shop_domain, customers.shop_domain),
			updated_at          = EXCLUDED.updated_at
		RETURNING ` + customerColumns

	customerGetByEmailQuery = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE email = $1`
)

// UpsertByEmail inserts a customer or refreshes the existing row keyed by
// email, returning the stored row.
func (r *CustomerRepo) UpsertByEmail(
	ctx context.Context,
	req *model.UpsertCustomerRequest,
) (*model.Customer, error) {
	if req == nil {
		return nil, apperrors.Validation("upsert customer request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now().UTC()
	var out model.Customer
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, customerUpsertQuery,
			req.Email,
			normalizeOptional(req.FirstName),
			normalizeOptional(req.LastName),
			normalizeOptional(req.ShopifyCustomerID),
			normalizeOptional(req.ShopDomain),
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err)
	}
	return &out, nil
}

// GetByEmail retrieves a customer by normalized email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}

	var out model.Customer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, customerGetByEmailQuery, email)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}
	return &out, nil
}

// DeleteByShopifyCustomerID removes the local mirror of a customer deleted
// or redacted upstream. Deleting an absent customer is not an error.
func (r *CustomerRepo) DeleteByShopifyCustomerID(ctx context.Context, shopifyCustomerID string) error {
	shopifyCustomerID = strings.TrimSpace(shopifyCustomerID)
	if shopifyCustomerID == "" {
		return apperrors.Validation("shopify_customer_id is required")
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx,
			`DELETE FROM customers WHERE shopify_customer_id = $1`, shopifyCustomerID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// normalizeOptional trims an optional field and maps empty strings to NULL
// so COALESCE in the upsert keeps existing values.
func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (r *CustomerRepo) mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.MapDBError(err)
}
