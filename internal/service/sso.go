package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/metrics"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/ports"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

// SSOServiceOptions groups dependencies for SSOService.
type SSOServiceOptions struct {
	Codec       *ssotoken.Codec          // Required: token codec
	Sessions    ports.SessionStore       // Required: session persistence
	Customers   ports.CustomerRepository // Required: customer mirror
	ShopDomains *ShopDomainPolicy        // Optional: shop domain allowlist
	SessionTTL  time.Duration            // Optional: defaults to domainauth.DefaultSessionTTL
	Logger      *slog.Logger             // Optional: structured logger
	Metrics     statsd.Sink              // Optional: metrics sink
}

// SSOService orchestrates the SSO callback flow: verify the incoming token,
// refresh the local customer mirror, and establish a session.
type SSOService struct {
	codec       *ssotoken.Codec
	sessions    ports.SessionStore
	customers   ports.CustomerRepository
	shopDomains *ShopDomainPolicy
	sessionTTL  time.Duration
	logger      *slog.Logger
	metrics     statsd.Sink
}

// ErrSessionExpired is returned when a session exists but is past expiry.
var ErrSessionExpired = errors.New("session expired")

// ErrShopDomainNotAllowed is returned when the shop query parameter names a
// shop outside the configured allowlist.
var ErrShopDomainNotAllowed = errors.New("shop domain not allowed")

// NewSSOService constructs a new SSOService.
func NewSSOService(opts SSOServiceOptions) (*SSOService, error) {
	if opts.Codec == nil {
		return nil, errors.New("token codec is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Customers == nil {
		return nil, errors.New("customer repository is required")
	}

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = domainauth.DefaultSessionTTL
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sso_service")
	}

	return &SSOService{
		codec:       opts.Codec,
		sessions:    opts.Sessions,
		customers:   opts.Customers,
		shopDomains: opts.ShopDomains,
		sessionTTL:  ttl,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// CompleteSSOInput groups parameters for completing an SSO handoff.
type CompleteSSOInput struct {
	// Token is the opaque token text from the redirect query string.
	Token string
	// ShopDomain is the optional shop query parameter identifying the
	// originating storefront.
	ShopDomain string
}

// CompleteSSOResult contains the result of a completed SSO handoff.
type CompleteSSOResult struct {
	Session  domainauth.Session
	ReturnTo string
}

// CompleteSSO verifies the token, upserts the customer mirror, and persists
// a new session. Any verification failure surfaces as a single rejection:
// callers must not distinguish failure causes to the browser.
func (s *SSOService) CompleteSSO(ctx context.Context, input CompleteSSOInput) (*CompleteSSOResult, error) {
	start := time.Now()

	if s.shopDomains != nil && !s.shopDomains.Allowed(input.ShopDomain) {
		s.emitVerify(metrics.ResultError, time.Since(start), ErrShopDomainNotAllowed)
		return nil, ErrShopDomainNotAllowed
	}

	claim, err := s.codec.Verify(input.Token)
	if err != nil {
		// Log the precise failure kind for operators; the caller only
		// ever relays a generic rejection.
		if s.logger != nil {
			s.logger.InfoContext(ctx, "token rejected",
				"kind", ssotoken.KindOf(err),
				"shop_domain", input.ShopDomain,
			)
		}
		s.emitVerify(metrics.ResultError, time.Since(start), err)
		return nil, fmt.Errorf("verify token: %w", err)
	}

	customer, err := s.upsertCustomer(ctx, claim, input.ShopDomain)
	if err != nil {
		s.emitVerify(metrics.ResultError, time.Since(start), err)
		return nil, fmt.Errorf("upsert customer: %w", err)
	}

	session := domainauth.Session{
		ID:                uuid.NewString(),
		Email:             customer.Email,
		FirstName:         claim.FirstName,
		LastName:          claim.LastName,
		ShopifyCustomerID: claim.ShopifyCustomerID,
		ShopDomain:        input.ShopDomain,
		ExpiresAt:         time.Now().Add(s.sessionTTL),
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		s.emitVerify(metrics.ResultError, time.Since(start), saveErr)
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "sso completed",
			"customer_id", customer.ID,
			"shop_domain", input.ShopDomain,
		)
	}
	s.emitVerify(metrics.ResultSuccess, time.Since(start), nil)

	return &CompleteSSOResult{
		Session:  session,
		ReturnTo: claim.ReturnTo,
	}, nil
}

// upsertCustomer refreshes the local mirror from the verified claim.
func (s *SSOService) upsertCustomer(ctx context.Context, claim ssotoken.Claim, shopDomain string) (*model.Customer, error) {
	req := &model.UpsertCustomerRequest{Email: claim.Email}
	if claim.FirstName != "" {
		req.FirstName = &claim.FirstName
	}
	if claim.LastName != "" {
		req.LastName = &claim.LastName
	}
	if claim.ShopifyCustomerID != "" {
		req.ShopifyCustomerID = &claim.ShopifyCustomerID
	}
	if shopDomain != "" {
		req.ShopDomain = &shopDomain
	}
	return s.customers.UpsertByEmail(ctx, req)
}

// GetSession retrieves a session by ID, deleting it if expired.
func (s *SSOService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(time.Now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *SSOService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *SSOService) emitVerify(result string, elapsed time.Duration, err error) {
	metrics.EmitSSOOperation(s.metrics, metrics.SSOMetric{
		Operation: "verify",
		Result:    result,
		Duration:  elapsed,
		Err:       err,
	})
}
