// Package auth contains domain-level types for SSO sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// DefaultSessionTTL is how long a session established from a verified SSO
// token remains valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is the server-side record persisted for a customer who completed
// the SSO handoff. ID is an opaque session identifier (random URL-safe
// string); it is the only value that reaches the browser.
type Session struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	ShopifyCustomerID string    `json:"shopify_customer_id"`
	ShopDomain        string    `json:"shop_domain"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
