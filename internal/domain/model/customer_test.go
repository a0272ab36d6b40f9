package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertCustomerRequest_Validate(t *testing.T) {
	req := &UpsertCustomerRequest{Email: "  Ada@Example.COM "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ada@example.com", req.Email, "email is trimmed and lowercased")

	assert.Error(t, (&UpsertCustomerRequest{}).Validate())
	assert.Error(t, (&UpsertCustomerRequest{Email: "no-at-sign"}).Validate())
	assert.Error(t, (&UpsertCustomerRequest{Email: strings.Repeat("a", 321) + "@x.com"}).Validate())
}

func TestParseWebhookTopic(t *testing.T) {
	topic, ok := ParseWebhookTopic(" Customers/Update ")
	require.True(t, ok)
	assert.Equal(t, WebhookTopicCustomersUpdate, topic)

	_, ok = ParseWebhookTopic("orders/create")
	assert.False(t, ok)
}

func TestWebhookEvent_Validate(t *testing.T) {
	e := &WebhookEvent{DeliveryID: "d-1", Topic: WebhookTopicCustomersCreate}
	assert.NoError(t, e.Validate())

	assert.Error(t, (&WebhookEvent{Topic: WebhookTopicCustomersCreate}).Validate())
	assert.Error(t, (&WebhookEvent{DeliveryID: "d-1", Topic: "orders/create"}).Validate())
}
