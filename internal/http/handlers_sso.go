package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

// SSOServiceInterface defines the interface for SSO service operations.
type SSOServiceInterface interface {
	CompleteSSO(ctx context.Context, input service.CompleteSSOInput) (*service.CompleteSSOResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// TokenIssuerInterface defines the interface for reverse-handoff token minting.
type TokenIssuerInterface interface {
	LoginURL(claim ssotoken.Claim) (string, *service.IssueResult, error)
}

// SSOHandlers provides HTTP handlers for the SSO handoff endpoints.
type SSOHandlers struct {
	Svc             SSOServiceInterface
	Issuer          TokenIssuerInterface
	CookieName      string
	CookieDomain    string
	DefaultReturnTo string
	LoginErrorPath  string
	Logger          *slog.Logger
}

func (h *SSOHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SSOHandlers) cookieName() string {
	if h.CookieName != "" {
		return h.CookieName
	}
	return "xwanai_session"
}

func (h *SSOHandlers) defaultReturnTo() string {
	if h.DefaultReturnTo != "" {
		return h.DefaultReturnTo
	}
	return "/account"
}

func (h *SSOHandlers) loginErrorPath() string {
	if h.LoginErrorPath != "" {
		return h.LoginErrorPath
	}
	return "/login"
}

// Callback handles the SSO landing endpoint hit by the storefront redirect.
// GET /auth/shopify-callback?token=<token>&shop=<shop>&return_to=<optional>.
//
// Every failure, whatever the cause, sends the browser to the login error
// page with a single generic error code. Diagnostic detail stays in the logs.
func (h *SSOHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.redirectError(w, r, "missing token parameter")
		return
	}

	result, err := h.Svc.CompleteSSO(r.Context(), service.CompleteSSOInput{
		Token:      token,
		ShopDomain: r.URL.Query().Get("shop"),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "sso callback rejected", "error", err)
		h.redirectError(w, r, "sso completion failed")
		return
	}

	h.setSessionCookie(w, r, result.Session)

	// The destination sealed inside the token wins over the query
	// parameter; both are restricted to same-origin relative paths.
	returnTo := result.ReturnTo
	if returnTo == "" {
		returnTo = r.URL.Query().Get("return_to")
	}
	http.Redirect(w, r, h.safeReturnTo(returnTo), http.StatusFound)
}

// redirectError sends the browser to the login error page. The error query
// value is a fixed code so failure causes are indistinguishable client-side.
func (h *SSOHandlers) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	h.logger().InfoContext(r.Context(), "sso redirect to error page", "reason", reason)
	u := url.URL{Path: h.loginErrorPath()}
	q := url.Values{}
	q.Set("error", "sso_failed")
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *SSOHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(h.cookieName())
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.clearSessionCookie(w, r)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"customer": map[string]interface{}{
			"email":               session.Email,
			"first_name":          session.FirstName,
			"last_name":           session.LastName,
			"shopify_customer_id": session.ShopifyCustomerID,
			"shop_domain":         session.ShopDomain,
		},
		"expires_at": session.ExpiresAt,
	})
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *SSOHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(h.cookieName()); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearSessionCookie(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// issueTokenRequest is the body for the reverse-handoff minting endpoint.
// Only the destination is caller-controlled; identity comes from the session.
type issueTokenRequest struct {
	ReturnTo string `json:"return_to"`
}

// IssueToken mints an SSO token for the authenticated session's identity and
// returns the storefront login URL for the reverse handoff.
// POST /api/sso/token (session required).
func (h *SSOHandlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	if h.Issuer == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "issuance_disabled",
			Err:     errors.New("token issuance is not configured"),
		})
		return
	}

	var req issueTokenRequest
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}

	loginURL, issued, err := h.Issuer.LoginURL(ssotoken.Claim{
		Email:             session.Email,
		FirstName:         session.FirstName,
		LastName:          session.LastName,
		ShopifyCustomerID: session.ShopifyCustomerID,
		ReturnTo:          req.ReturnTo,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "token issuance failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "issuance_failed",
			Err:     errors.New("could not issue token"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":        issued.Token,
		"redirect_url": loginURL,
		"issued_at":    issued.IssuedAt,
		"expires_at":   issued.ExpiresAt,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *SSOHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearSessionCookie clears the session cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting
// cookies to maximize compatibility across browsers during deletion.
func (h *SSOHandlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// safeReturnTo restricts post-login destinations to same-origin relative
// paths starting with "/". Anything else falls back to the default.
func (h *SSOHandlers) safeReturnTo(candidate string) string {
	if candidate == "" {
		return h.defaultReturnTo()
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(u.Path, "//") {
		return h.defaultReturnTo()
	}
	return candidate
}
