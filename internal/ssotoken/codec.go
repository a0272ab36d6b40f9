// Package ssotoken implements the symmetric encrypt-then-MAC token format
// that carries customer identity claims across the redirect boundary between
// the storefront and the partner platform.
//
// Both sides share one secret and run the identical algorithm, so
// verification is purely local: no network call, no stored state. The wire
// layout is IV(16) || AES-128-CBC ciphertext || HMAC-SHA256 tag(32), encoded
// as unpadded URL-safe base64. The one load-bearing invariant is the
// authenticate-then-decrypt ordering in Open: the MAC is checked in constant
// time before any ciphertext is touched.
package ssotoken

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"time"
)

const (
	// DefaultTTL is the trust window for a token measured from issuance.
	DefaultTTL = 15 * time.Minute
	// DefaultClockSkew is how far in the future a claim's issue time may sit
	// before it is rejected. Covers honest clock drift between the two sides.
	DefaultClockSkew = 30 * time.Second
)

// Config describes how to build a Codec. Secret is mandatory; everything
// else has a sensible default.
type Config struct {
	// Secret is the shared secret provisioned identically to both sides.
	Secret string
	// TTL is the acceptance window after issuance. Defaults to DefaultTTL.
	TTL time.Duration
	// ClockSkew is the tolerated future drift of IssuedAt. Defaults to
	// DefaultClockSkew.
	ClockSkew time.Duration
	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
	// Random overrides the IV source (tests). Defaults to crypto/rand.
	Random io.Reader
}

// Codec issues and verifies SSO tokens. It is immutable after construction
// and safe for concurrent use from any number of request goroutines: the
// derived keys are read-only and crypto/rand is safe for concurrent reads.
type Codec struct {
	keys   KeyMaterial
	ttl    time.Duration
	skew   time.Duration
	now    func() time.Time
	random io.Reader
}

// New derives key material from the configured secret and returns a ready
// codec. An empty secret is a configuration error: callers must treat it as
// fatal and refuse to serve SSO traffic.
func New(cfg Config) (*Codec, error) {
	keys, err := DeriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		keys:   keys,
		ttl:    cfg.TTL,
		skew:   cfg.ClockSkew,
		now:    cfg.Now,
		random: cfg.Random,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.skew <= 0 {
		c.skew = DefaultClockSkew
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.random == nil {
		c.random = rand.Reader
	}
	return c, nil
}

// TTL returns the configured acceptance window.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue stamps the claim with the current time, seals it, and returns the
// URL-safe token string. The input claim is not mutated; the stamped copy is
// returned alongside the token so callers can log what was actually sealed.
func (c *Codec) Issue(claim Claim) (string, Claim, error) {
	if err := claim.Validate(); err != nil {
		return "", Claim{}, err
	}

	// Truncate to whole seconds: the wire format carries RFC 3339 with
	// second precision, and round-tripping must preserve equality.
	claim.IssuedAt = c.now().UTC().Truncate(time.Second)

	plaintext, err := marshalClaim(claim)
	if err != nil {
		return "", Claim{}, err
	}

	sealed, err := seal(plaintext, c.keys, c.random)
	if err != nil {
		return "", Claim{}, err
	}

	return base64.RawURLEncoding.EncodeToString(sealed), claim, nil
}

// Verify walks the rejection state machine for one token: decode,
// authenticate, decrypt, deserialize, check the time window. Every step
// short-circuits with a kind-tagged error; there are no partial outcomes.
// Verification has no side effects, so verifying the same token twice
// yields the same result both times.
func (c *Codec) Verify(token string) (Claim, error) {
	if token == "" {
		return Claim{}, newError(KindMalformedToken, "token is empty")
	}

	// Issuers that predate the unpadded encoding appended '=' padding;
	// accept both forms.
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return Claim{}, wrapError(err, KindMalformedToken, "decode token")
	}

	plaintext, err := open(raw, c.keys)
	if err != nil {
		return Claim{}, err
	}

	claim, err := unmarshalClaim(plaintext)
	if err != nil {
		return Claim{}, err
	}

	elapsed := c.now().Sub(claim.IssuedAt)
	switch {
	case elapsed > c.ttl:
		return Claim{}, newError(KindTokenExpired, "token issued outside the acceptance window")
	case elapsed < -c.skew:
		// A claim from the future is treated as invalid rather than being
		// granted extra lifetime; anything beyond honest drift is suspect.
		return Claim{}, newError(KindTokenExpired, "token issued in the future")
	}

	return claim, nil
}
