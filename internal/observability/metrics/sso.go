package metrics

import (
	"time"

	obserrors "github.com/xwanai/shopify-sso-bridge/internal/observability/errors"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// SSOMetric captures details about an SSO token operation for metric emission.
type SSOMetric struct {
	// Operation is "issue" or "verify".
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitSSOOperation emits standardised token issue/verify metrics.
// Failed verifications are tagged with the error class only, never with
// claim contents.
func EmitSSOOperation(sink statsd.Sink, in SSOMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("sso.token", 1, tags)

	if in.Duration > 0 {
		sink.Timing("sso.token.duration", in.Duration, CloneTags(tags))
	}
}

// WebhookMetric captures details about a webhook delivery for metric emission.
type WebhookMetric struct {
	Topic    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitWebhookDelivery emits webhook processing metrics. Duplicate deliveries
// report ResultNoop.
func EmitWebhookDelivery(sink statsd.Sink, in WebhookMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"topic":  in.Topic,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("webhook.delivery", 1, tags)

	if in.Duration > 0 {
		sink.Timing("webhook.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty maps.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
