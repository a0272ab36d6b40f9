package httpx

import (
	"log/slog"
	"net/http"

	"github.com/xwanai/shopify-sso-bridge/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	SSO    SSOServiceInterface
	Issuer TokenIssuerInterface
	// Optional: webhook ingestion. Routes are only registered when both
	// Sync and WebhookVerifier are set.
	Sync            WebhookSyncInterface
	WebhookVerifier WebhookVerifierInterface
	ShopDomains     *service.ShopDomainPolicy
	// Cookie and redirect configuration
	CookieName      string
	CookieDomain    string
	DefaultReturnTo string
	LoginErrorPath  string
	Logger          *slog.Logger // Logger for handler warnings (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	ssoHandlers := &SSOHandlers{
		Svc:             services.SSO,
		Issuer:          services.Issuer,
		CookieName:      services.CookieName,
		CookieDomain:    services.CookieDomain,
		DefaultReturnTo: services.DefaultReturnTo,
		LoginErrorPath:  services.LoginErrorPath,
		Logger:          services.Logger,
	}

	registerSSORoutes(mux, ssoHandlers)

	if services.Sync != nil && services.WebhookVerifier != nil {
		webhookHandlers := &WebhookHandlers{
			Sync:        services.Sync,
			Verifier:    services.WebhookVerifier,
			ShopDomains: services.ShopDomains,
			Logger:      services.Logger,
		}
		mux.Handle("POST /webhooks/shopify", http.HandlerFunc(webhookHandlers.Receive))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

// registerSSORoutes wires the browser-facing handoff endpoints and the
// session-protected issuance API.
func registerSSORoutes(mux *http.ServeMux, h *SSOHandlers) {
	mux.Handle("GET /auth/shopify-callback", http.HandlerFunc(h.Callback))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))

	requireSession := RequireSession(h.Svc, h.cookieName())
	mux.Handle("POST /api/sso/token", requireSession(http.HandlerFunc(h.IssueToken)))
}
