package config

import (
	"strings"
	"time"
)

// SSOConfig groups token codec and session configuration.
type SSOConfig struct {
	// SharedSecret is the secret shared with the storefront for deriving
	// the token encryption and MAC keys. Required.
	SharedSecret string `env:"SSO_SHARED_SECRET,required"`

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `env:"SSO_TOKEN_TTL" envDefault:"15m"`

	// ClockSkew is the tolerance applied to token timestamps to absorb
	// clock differences between the issuing and verifying hosts.
	ClockSkew time.Duration `env:"SSO_CLOCK_SKEW" envDefault:"30s"`

	// SessionTTL is the lifetime of a session created after a successful
	// SSO callback.
	SessionTTL time.Duration `env:"SSO_SESSION_TTL" envDefault:"168h"` // 7 days

	// CookieName is the name of the session cookie.
	CookieName string `env:"SSO_COOKIE_NAME" envDefault:"xwanai_session"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"SSO_COOKIE_DOMAIN" envDefault:""`

	// PartnerBaseURL is the base URL of the storefront receiving tokens
	// this service issues (e.g. "https://shop.example.com").
	PartnerBaseURL string `env:"SSO_PARTNER_BASE_URL" envDefault:""`

	// PartnerLoginPath is the path on the partner that accepts issued
	// tokens.
	PartnerLoginPath string `env:"SSO_PARTNER_LOGIN_PATH" envDefault:"/account/sso"`

	// DefaultReturnTo is where a customer lands after a callback that
	// carries no return_to destination.
	DefaultReturnTo string `env:"SSO_DEFAULT_RETURN_TO" envDefault:"/account"`

	// LoginErrorPath is where failed callbacks redirect.
	LoginErrorPath string `env:"SSO_LOGIN_ERROR_PATH" envDefault:"/login"`
}

// Sanitize applies guardrails to SSO configuration values.
func (s *SSOConfig) Sanitize() {
	if s.TokenTTL <= 0 {
		s.TokenTTL = 15 * time.Minute
	}
	if s.ClockSkew < 0 {
		s.ClockSkew = 0
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = 168 * time.Hour
	}
	if strings.TrimSpace(s.CookieName) == "" {
		s.CookieName = "xwanai_session"
	}
	s.PartnerBaseURL = strings.TrimRight(strings.TrimSpace(s.PartnerBaseURL), "/")
	if !strings.HasPrefix(s.PartnerLoginPath, "/") {
		s.PartnerLoginPath = "/" + s.PartnerLoginPath
	}
	if s.DefaultReturnTo == "" {
		s.DefaultReturnTo = "/account"
	}
	if s.LoginErrorPath == "" {
		s.LoginErrorPath = "/login"
	}
}
