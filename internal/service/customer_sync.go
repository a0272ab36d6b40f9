package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	apperrors "github.com/xwanai/shopify-sso-bridge/internal/errors"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/metrics"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/ports"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// Field extraction expressions. Storefront payloads are not consistent
// about casing across API versions, so each field falls back from the
// snake_case form to the camelCase one.
const (
	exprEmail      = "email || Email"
	exprFirstName  = "first_name || firstName"
	exprLastName   = "last_name || lastName"
	exprCustomerID = "id"
	// Redaction payloads nest the customer reference.
	exprRedactCustomerID = "customer.id || customer_id"
)

// CustomerSyncServiceOptions groups dependencies for CustomerSyncService.
type CustomerSyncServiceOptions struct {
	Customers ports.CustomerRepository   // Required: customer mirror
	Events    ports.WebhookEventRecorder // Required: delivery dedup
	Evaluator JMESPathEvaluator          // Optional: defaults to go-jmespath
	Logger    *slog.Logger               // Optional: structured logger
	Metrics   statsd.Sink                // Optional: metrics sink
}

// CustomerSyncService applies storefront customer webhooks to the local
// mirror. Deliveries are idempotent: the platform redelivers on timeout,
// so each delivery ID is applied at most once.
type CustomerSyncService struct {
	customers ports.CustomerRepository
	events    ports.WebhookEventRecorder
	jems      JMESPathEvaluator
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewCustomerSyncService constructs a new CustomerSyncService.
func NewCustomerSyncService(opts CustomerSyncServiceOptions) (*CustomerSyncService, error) {
	if opts.Customers == nil {
		return nil, errors.New("customer repository is required")
	}
	if opts.Events == nil {
		return nil, errors.New("webhook event recorder is required")
	}

	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "customer_sync")
	}

	return &CustomerSyncService{
		customers: opts.Customers,
		events:    opts.Events,
		jems:      jems,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// WebhookDelivery is one verified webhook delivery ready to apply.
type WebhookDelivery struct {
	DeliveryID string
	Topic      model.WebhookTopic
	ShopDomain string
	Payload    []byte
}

// SyncOutcome describes what a delivery did.
type SyncOutcome string

const (
	// SyncApplied means the delivery changed the customer mirror.
	SyncApplied SyncOutcome = "applied"
	// SyncDuplicate means the delivery ID was seen before and skipped.
	SyncDuplicate SyncOutcome = "duplicate"
)

// Apply routes the delivery to the matching mirror change and records the
// delivery ID once the change sticks. A redelivered delivery ID returns
// SyncDuplicate with no error.
func (s *CustomerSyncService) Apply(ctx context.Context, delivery WebhookDelivery) (SyncOutcome, error) {
	start := time.Now()

	outcome, err := s.apply(ctx, delivery)

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case outcome == SyncDuplicate:
		result = metrics.ResultNoop
	}
	metrics.EmitWebhookDelivery(s.metrics, metrics.WebhookMetric{
		Topic:    string(delivery.Topic),
		Result:   result,
		Duration: time.Since(start),
		Err:      err,
	})

	return outcome, err
}

func (s *CustomerSyncService) apply(ctx context.Context, delivery WebhookDelivery) (SyncOutcome, error) {
	var payload any
	if unmarshalErr := json.Unmarshal(delivery.Payload, &payload); unmarshalErr != nil {
		return "", apperrors.Wrap(unmarshalErr, apperrors.ErrCodeValidation, "decode payload")
	}

	var err error
	switch delivery.Topic {
	case model.WebhookTopicCustomersCreate, model.WebhookTopicCustomersUpdate:
		err = s.applyUpsert(ctx, payload, delivery.ShopDomain)
	case model.WebhookTopicCustomersDelete:
		err = s.applyDelete(ctx, payload, exprCustomerID)
	case model.WebhookTopicCustomersRedact:
		err = s.applyDelete(ctx, payload, exprRedactCustomerID)
	default:
		err = fmt.Errorf("unsupported topic %q", delivery.Topic)
	}
	if err != nil {
		return "", err
	}

	// Record only after the mirror change sticks. A delivery that failed
	// transiently leaves no dedup row, so the platform's retry re-applies
	// it instead of being swallowed as a duplicate. Mirror changes are
	// idempotent, so re-running one ahead of the dedup check is harmless.
	firstSeen, err := s.events.Record(ctx, &model.WebhookEvent{
		DeliveryID: delivery.DeliveryID,
		Topic:      delivery.Topic,
		ShopDomain: delivery.ShopDomain,
	})
	if err != nil {
		return "", fmt.Errorf("record delivery: %w", err)
	}
	if !firstSeen {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "duplicate webhook delivery",
				"delivery_id", delivery.DeliveryID,
				"topic", delivery.Topic,
			)
		}
		return SyncDuplicate, nil
	}
	return SyncApplied, nil
}

func (s *CustomerSyncService) applyUpsert(ctx context.Context, payload any, shopDomain string) error {
	email := s.extractString(payload, exprEmail)
	if email == "" {
		return apperrors.Validation("payload has no email")
	}

	req := &model.UpsertCustomerRequest{Email: email}
	if v := s.extractString(payload, exprFirstName); v != "" {
		req.FirstName = &v
	}
	if v := s.extractString(payload, exprLastName); v != "" {
		req.LastName = &v
	}
	if v := s.extractString(payload, exprCustomerID); v != "" {
		req.ShopifyCustomerID = &v
	}
	if shopDomain != "" {
		req.ShopDomain = &shopDomain
	}

	if _, err := s.customers.UpsertByEmail(ctx, req); err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

func (s *CustomerSyncService) applyDelete(ctx context.Context, payload any, idExpr string) error {
	id := s.extractString(payload, idExpr)
	if id == "" {
		return apperrors.Validation("payload has no customer id")
	}
	if err := s.customers.DeleteByShopifyCustomerID(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

// extractString evaluates the expression and coerces the result to a
// string. Storefront IDs arrive as JSON numbers, which decode to float64.
func (s *CustomerSyncService) extractString(payload any, expr string) string {
	v, err := s.jems.Evaluate(expr, payload)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
