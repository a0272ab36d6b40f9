// Package mocks provides mock implementations for testing services and handlers.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	sessions := mocks.NewMockSessionStore(ctrl)
//	sessions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for SessionStore interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/xwanai/shopify-sso-bridge/internal/ports SessionStore

// Generate mock for CustomerRepository interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=customer_repository_mock.go github.com/xwanai/shopify-sso-bridge/internal/ports CustomerRepository

// Generate mock for WebhookEventRecorder interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=webhook_event_recorder_mock.go github.com/xwanai/shopify-sso-bridge/internal/ports WebhookEventRecorder
