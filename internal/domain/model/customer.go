//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxEmailLen = 320

// Customer is the local mirror of a storefront customer, kept in sync by
// webhooks and refreshed opportunistically on SSO callbacks.
type Customer struct {
	ID                string    `json:"id"                            db:"id"`
	Email             string    `json:"email"                         db:"email"`
	FirstName         *string   `json:"first_name,omitempty"          db:"first_name"`
	LastName          *string   `json:"last_name,omitempty"           db:"last_name"`
	ShopifyCustomerID *string   `json:"shopify_customer_id,omitempty" db:"shopify_customer_id"`
	ShopDomain        *string   `json:"shop_domain,omitempty"         db:"shop_domain"`
	CreatedAt         time.Time `json:"created_at"                    db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"                    db:"updated_at"`
}

// UpsertCustomerRequest represents parameters to create or refresh a
// customer record. Email is the upsert key.
type UpsertCustomerRequest struct {
	Email             string  `json:"email"`
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	ShopifyCustomerID *string `json:"shopify_customer_id,omitempty"`
	ShopDomain        *string `json:"shop_domain,omitempty"`
}

// Validate validates UpsertCustomerRequest.
func (r *UpsertCustomerRequest) Validate() error {
	email := strings.TrimSpace(strings.ToLower(r.Email))
	if email == "" {
		return errors.New("email is required and cannot be empty")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return errors.New("email cannot exceed 320 characters")
	}
	if !strings.Contains(email, "@") {
		return errors.New("email must contain @")
	}
	r.Email = email
	return nil
}
