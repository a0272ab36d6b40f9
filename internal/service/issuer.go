package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/xwanai/shopify-sso-bridge/internal/observability/metrics"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

// TokenIssuerOptions groups dependencies for TokenIssuer.
type TokenIssuerOptions struct {
	Codec *ssotoken.Codec // Required: token codec

	// PartnerBaseURL is the storefront base URL tokens are handed to,
	// e.g. "https://shop.example.com". Required for login URL building.
	PartnerBaseURL string

	// PartnerLoginPath is the path on the partner that accepts tokens.
	PartnerLoginPath string

	// ShopDomain identifies the issuing shop to the partner. Carried as
	// a query parameter on the login URL.
	ShopDomain string

	Logger  *slog.Logger // Optional: structured logger
	Metrics statsd.Sink  // Optional: metrics sink
}

// TokenIssuer mints tokens for the outbound direction of the bridge:
// a customer authenticated here is handed to the partner storefront with a
// sealed identity token in the redirect URL.
type TokenIssuer struct {
	codec            *ssotoken.Codec
	partnerBaseURL   string
	partnerLoginPath string
	shopDomain       string
	logger           *slog.Logger
	metrics          statsd.Sink
}

// NewTokenIssuer constructs a new TokenIssuer.
func NewTokenIssuer(opts TokenIssuerOptions) (*TokenIssuer, error) {
	if opts.Codec == nil {
		return nil, errors.New("token codec is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "token_issuer")
	}

	return &TokenIssuer{
		codec:            opts.Codec,
		partnerBaseURL:   opts.PartnerBaseURL,
		partnerLoginPath: opts.PartnerLoginPath,
		shopDomain:       opts.ShopDomain,
		logger:           logger,
		metrics:          opts.Metrics,
	}, nil
}

// IssueResult contains a minted token and its issuance metadata.
type IssueResult struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue mints a token for the given claim. IssuedAt is stamped by the
// codec; any caller-supplied value is ignored.
func (s *TokenIssuer) Issue(claim ssotoken.Claim) (*IssueResult, error) {
	start := time.Now()

	token, stamped, err := s.codec.Issue(claim)
	if err != nil {
		metrics.EmitSSOOperation(s.metrics, metrics.SSOMetric{
			Operation: "issue",
			Result:    metrics.ResultError,
			Duration:  time.Since(start),
			Err:       err,
		})
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.EmitSSOOperation(s.metrics, metrics.SSOMetric{
		Operation: "issue",
		Result:    metrics.ResultSuccess,
		Duration:  time.Since(start),
	})

	return &IssueResult{
		Token:     token,
		IssuedAt:  stamped.IssuedAt,
		ExpiresAt: stamped.IssuedAt.Add(s.codec.TTL()),
	}, nil
}

// LoginURL mints a token and builds the partner redirect URL carrying it
// plus the pass-through parameters: the issuing shop domain and the
// return_to destination. The destination also travels inside the sealed
// claim, where the authenticated copy takes precedence on the receiving
// side; the bare parameter exists for receivers that only read the query.
func (s *TokenIssuer) LoginURL(claim ssotoken.Claim) (string, *IssueResult, error) {
	if s.partnerBaseURL == "" {
		return "", nil, errors.New("partner base URL is not configured")
	}

	res, err := s.Issue(claim)
	if err != nil {
		return "", nil, err
	}

	u, err := url.Parse(s.partnerBaseURL + s.partnerLoginPath)
	if err != nil {
		return "", nil, fmt.Errorf("parse partner URL: %w", err)
	}
	q := u.Query()
	q.Set("token", res.Token)
	if s.shopDomain != "" {
		q.Set("shop", s.shopDomain)
	}
	if claim.ReturnTo != "" {
		q.Set("return_to", claim.ReturnTo)
	}
	u.RawQuery = q.Encode()

	return u.String(), res, nil
}
