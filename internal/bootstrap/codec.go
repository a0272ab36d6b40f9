package bootstrap

import (
	"fmt"

	"github.com/xwanai/shopify-sso-bridge/config"
	"github.com/xwanai/shopify-sso-bridge/internal/adapters/shopify"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

// BuildCodec derives the token codec from the SSO configuration.
// A missing shared secret is fatal: serving SSO traffic without one would
// accept any forged token.
func BuildCodec(cfg config.SSOConfig) (*ssotoken.Codec, error) {
	codec, err := ssotoken.New(ssotoken.Config{
		Secret:    cfg.SharedSecret,
		TTL:       cfg.TokenTTL,
		ClockSkew: cfg.ClockSkew,
	})
	if err != nil {
		return nil, fmt.Errorf("build token codec: %w", err)
	}
	return codec, nil
}

// BuildWebhookVerifier constructs the delivery signature verifier when
// webhooks are configured. Returns nil when no webhook secret is set; the
// webhook routes are simply not registered in that case.
func BuildWebhookVerifier(cfg config.ShopifyConfig) (*shopify.WebhookVerifier, error) {
	if !cfg.WebhooksEnabled() {
		return nil, nil
	}
	verifier, err := shopify.NewWebhookVerifier(cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("build webhook verifier: %w", err)
	}
	return verifier, nil
}

// BuildShopDomainPolicy constructs the shop domain allowlist. An empty
// allowlist returns nil, which callers treat as allow-all.
func BuildShopDomainPolicy(cfg config.ShopifyConfig) *service.ShopDomainPolicy {
	if len(cfg.AllowedShopDomains) == 0 {
		return nil
	}
	return service.NewShopDomainPolicy(cfg.AllowedShopDomains)
}
