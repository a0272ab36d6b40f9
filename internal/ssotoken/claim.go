package ssotoken

import (
	"encoding/json"
	"time"
)

// Claim is the customer identity carried inside a token. A claim is
// immutable once sealed; IssuedAt is always stamped server-side by the
// issuer and never accepted from callers.
type Claim struct {
	Email             string
	FirstName         string
	LastName          string
	ShopifyCustomerID string
	IssuedAt          time.Time
	ReturnTo          string
}

// Validate checks issuance preconditions. Only email is mandatory; the
// remaining identity fields are optional pass-through data.
func (c Claim) Validate() error {
	if c.Email == "" {
		return newError(KindInvalidInput, "email is required")
	}
	return nil
}

// wireClaim is the canonical JSON encoding of a claim. Field names are
// stable across versions; decoding ignores unknown fields for forward
// compatibility.
//
// Legacy issuers emitted snake_case names for some fields, so each optional
// field carries a snake_case alias accepted on decode only. Precedence is
// camelCase first, then the alias. Encoding always emits camelCase.
type wireClaim struct {
	Email             string `json:"email"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	ShopifyCustomerID string `json:"shopifyCustomerId,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	ReturnTo          string `json:"returnTo,omitempty"`

	// Decode-only snake_case aliases. Left empty on encode so they are
	// omitted from the wire form.
	FirstNameAlias         string `json:"first_name,omitempty"`
	LastNameAlias          string `json:"last_name,omitempty"`
	ShopifyCustomerIDAlias string `json:"shopify_customer_id,omitempty"`
	CreatedAtAlias         string `json:"created_at,omitempty"`
	ReturnToAlias          string `json:"return_to,omitempty"`
}

// firstNonEmpty applies the documented alias precedence: the canonical
// camelCase value wins over the legacy snake_case one.
func firstNonEmpty(canonical, alias string) string {
	if canonical != "" {
		return canonical
	}
	return alias
}

func marshalClaim(c Claim) ([]byte, error) {
	w := wireClaim{
		Email:             c.Email,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		ShopifyCustomerID: c.ShopifyCustomerID,
		CreatedAt:         c.IssuedAt.UTC().Format(time.RFC3339),
		ReturnTo:          c.ReturnTo,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, wrapError(err, KindInvalidInput, "encode claim")
	}
	return data, nil
}

func unmarshalClaim(data []byte) (Claim, error) {
	var w wireClaim
	if err := json.Unmarshal(data, &w); err != nil {
		return Claim{}, wrapError(err, KindMalformedClaim, "decode claim")
	}

	if w.Email == "" {
		return Claim{}, newError(KindMalformedClaim, "claim is missing email")
	}

	createdAt := firstNonEmpty(w.CreatedAt, w.CreatedAtAlias)
	if createdAt == "" {
		return Claim{}, newError(KindMalformedClaim, "claim is missing createdAt")
	}
	issuedAt, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Claim{}, wrapError(err, KindMalformedClaim, "parse createdAt")
	}

	return Claim{
		Email:             w.Email,
		FirstName:         firstNonEmpty(w.FirstName, w.FirstNameAlias),
		LastName:          firstNonEmpty(w.LastName, w.LastNameAlias),
		ShopifyCustomerID: firstNonEmpty(w.ShopifyCustomerID, w.ShopifyCustomerIDAlias),
		IssuedAt:          issuedAt,
		ReturnTo:          firstNonEmpty(w.ReturnTo, w.ReturnToAlias),
	}, nil
}
