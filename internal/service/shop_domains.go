package service

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ShopDomainPolicy decides which storefront domains this service accepts
// tokens and webhooks from. Entries are compared by registrable domain
// (eTLD+1), so an allowlist entry covers its subdomains. An empty policy
// accepts anything.
type ShopDomainPolicy struct {
	allowed map[string]struct{}
}

// NewShopDomainPolicy builds a policy from allowlist entries. Entries are
// normalized to their registrable domain; entries that have no registrable
// domain (e.g. bare TLDs) are kept verbatim for exact matching.
func NewShopDomainPolicy(domains []string) *ShopDomainPolicy {
	p := &ShopDomainPolicy{allowed: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		p.allowed[registrableDomain(d)] = struct{}{}
	}
	return p
}

// Allowed reports whether the shop domain is covered by the policy.
// An empty domain is allowed only by an empty policy: storefronts that
// identify themselves must match the allowlist.
func (p *ShopDomainPolicy) Allowed(domain string) bool {
	if p == nil || len(p.allowed) == 0 {
		return true
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	_, ok := p.allowed[registrableDomain(domain)]
	return ok
}

// registrableDomain extracts the eTLD+1 using the public suffix list,
// falling back to the input when extraction fails.
func registrableDomain(domain string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return etld1
}
