package config

import "strings"

// ShopifyConfig groups storefront webhook configuration.
type ShopifyConfig struct {
	// WebhookSecret signs webhook request bodies. Webhook endpoints are
	// disabled when empty.
	WebhookSecret string `env:"WEBHOOK_SECRET" envDefault:""`

	// ShopDomain is the domain of the shop this bridge issues tokens on
	// behalf of, e.g. "example-shop.myshopify.com". Appended as the shop
	// query parameter on issued login URLs.
	ShopDomain string `env:"SHOP_DOMAIN" envDefault:""`

	// AllowedShopDomains lists the shop domains this service accepts
	// webhooks and tokens from. Entries are compared by registrable
	// domain, so "example-shop.myshopify.com" covers its subdomains.
	// Empty means any shop domain is accepted.
	AllowedShopDomains []string `env:"ALLOWED_SHOP_DOMAINS" envSeparator:"," envDefault:""`
}

// Sanitize normalizes shop domain entries.
func (s *ShopifyConfig) Sanitize() {
	s.WebhookSecret = strings.TrimSpace(s.WebhookSecret)
	s.ShopDomain = strings.ToLower(strings.TrimSpace(s.ShopDomain))

	cleaned := s.AllowedShopDomains[:0]
	for _, d := range s.AllowedShopDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			cleaned = append(cleaned, d)
		}
	}
	s.AllowedShopDomains = cleaned
}

// WebhooksEnabled reports whether webhook processing is configured.
func (s *ShopifyConfig) WebhooksEnabled() bool {
	return s.WebhookSecret != ""
}
