package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

// mockSSOService is a test double for service.SSOService.
type mockSSOService struct {
	completeSSOFunc func(ctx context.Context, input service.CompleteSSOInput) (*service.CompleteSSOResult, error)
	getSessionFunc  func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	logoutFunc      func(ctx context.Context, sessionID string) error
}

func (m *mockSSOService) CompleteSSO(
	ctx context.Context,
	input service.CompleteSSOInput,
) (*service.CompleteSSOResult, error) {
	if m.completeSSOFunc != nil {
		return m.completeSSOFunc(ctx, input)
	}
	return &service.CompleteSSOResult{
		Session: domainauth.Session{
			ID:        "test-session-id",
			Email:     "test@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}, nil
}

func (m *mockSSOService) GetSession(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return &domainauth.Session{
		ID:        sessionID,
		Email:     "test@example.com",
		FirstName: "Test",
		LastName:  "Customer",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (m *mockSSOService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

// mockTokenIssuer is a test double for service.TokenIssuer.
type mockTokenIssuer struct {
	loginURLFunc func(claim ssotoken.Claim) (string, *service.IssueResult, error)
}

func (m *mockTokenIssuer) LoginURL(claim ssotoken.Claim) (string, *service.IssueResult, error) {
	if m.loginURLFunc != nil {
		return m.loginURLFunc(claim)
	}
	now := time.Now()
	return "https://shop.example.com/account/sso?token=test-token", &service.IssueResult{
		Token:     "test-token",
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	}, nil
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	resp := w.Result()
	defer resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestSSOHandlers_Callback_Success(t *testing.T) {
	var gotInput service.CompleteSSOInput
	mockSvc := &mockSSOService{
		completeSSOFunc: func(_ context.Context, input service.CompleteSSOInput) (*service.CompleteSSOResult, error) {
			gotInput = input
			return &service.CompleteSSOResult{
				Session: domainauth.Session{
					ID:        "sess-123",
					Email:     "jane@example.com",
					ExpiresAt: time.Now().Add(time.Hour),
				},
				ReturnTo: "/orders",
			}, nil
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc}

	req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback?token=abc&shop=acme.myshopify.com", nil)
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/orders", w.Header().Get("Location"))
	assert.Equal(t, "abc", gotInput.Token)
	assert.Equal(t, "acme.myshopify.com", gotInput.ShopDomain)

	cookie := sessionCookieFrom(t, w, "xwanai_session")
	require.NotNil(t, cookie)
	assert.Equal(t, "sess-123", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Positive(t, cookie.MaxAge)
}

func TestSSOHandlers_Callback_MissingToken(t *testing.T) {
	handlers := &SSOHandlers{Svc: &mockSSOService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback", nil)
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=sso_failed", w.Header().Get("Location"))
	assert.Nil(t, sessionCookieFrom(t, w, "xwanai_session"))
}

func TestSSOHandlers_Callback_Rejected(t *testing.T) {
	mockSvc := &mockSSOService{
		completeSSOFunc: func(_ context.Context, _ service.CompleteSSOInput) (*service.CompleteSSOResult, error) {
			return nil, errors.New("verify token: authentication failed")
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc, LoginErrorPath: "/signin"}

	req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback?token=bad", nil)
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	// Failure causes must be indistinguishable to the browser.
	assert.Equal(t, "/signin?error=sso_failed", w.Header().Get("Location"))
	assert.Nil(t, sessionCookieFrom(t, w, "xwanai_session"))
}

func TestSSOHandlers_Callback_UnsafeReturnToFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		returnTo string
	}{
		{name: "absolute url", returnTo: "https://evil.example.com/phish"},
		{name: "scheme relative", returnTo: "//evil.example.com/phish"},
		{name: "no leading slash", returnTo: "account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockSSOService{
				completeSSOFunc: func(_ context.Context, _ service.CompleteSSOInput) (*service.CompleteSSOResult, error) {
					return &service.CompleteSSOResult{
						Session: domainauth.Session{
							ID:        "sess-123",
							ExpiresAt: time.Now().Add(time.Hour),
						},
						ReturnTo: tt.returnTo,
					}, nil
				},
			}
			handlers := &SSOHandlers{Svc: mockSvc}

			req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback?token=abc", nil)
			w := httptest.NewRecorder()

			handlers.Callback(w, req)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/account", w.Header().Get("Location"))
		})
	}
}

func TestSSOHandlers_Callback_ReturnToFromQuery(t *testing.T) {
	mockSvc := &mockSSOService{
		completeSSOFunc: func(_ context.Context, _ service.CompleteSSOInput) (*service.CompleteSSOResult, error) {
			return &service.CompleteSSOResult{
				Session: domainauth.Session{
					ID:        "sess-123",
					ExpiresAt: time.Now().Add(time.Hour),
				},
			}, nil
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc}

	req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback?token=abc&return_to=%2Fwishlist", nil)
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/wishlist", w.Header().Get("Location"))
}

func TestSSOHandlers_Callback_SecureCookieBehindProxy(t *testing.T) {
	handlers := &SSOHandlers{Svc: &mockSSOService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/shopify-callback?token=abc", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	cookie := sessionCookieFrom(t, w, "xwanai_session")
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestSSOHandlers_Status_Authenticated(t *testing.T) {
	handlers := &SSOHandlers{Svc: &mockSSOService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "sess-123"})
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"authenticated":true`)
	assert.Contains(t, body, `"email":"test@example.com"`)
	assert.Contains(t, body, `"first_name":"Test"`)
}

func TestSSOHandlers_Status_NoCookie(t *testing.T) {
	handlers := &SSOHandlers{Svc: &mockSSOService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestSSOHandlers_Status_InvalidSessionClearsCookie(t *testing.T) {
	mockSvc := &mockSSOService{
		getSessionFunc: func(_ context.Context, _ string) (*domainauth.Session, error) {
			return nil, service.ErrSessionExpired
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "stale"})
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	cookie := sessionCookieFrom(t, w, "xwanai_session")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestSSOHandlers_Logout(t *testing.T) {
	var loggedOut string
	mockSvc := &mockSSOService{
		logoutFunc: func(_ context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "sess-123"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-123", loggedOut)

	cookie := sessionCookieFrom(t, w, "xwanai_session")
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
}

func TestSSOHandlers_Logout_NoCookieIsNoop(t *testing.T) {
	called := false
	mockSvc := &mockSSOService{
		logoutFunc: func(_ context.Context, _ string) error {
			called = true
			return nil
		},
	}
	handlers := &SSOHandlers{Svc: mockSvc}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
}

func TestSSOHandlers_IssueToken_Success(t *testing.T) {
	var gotClaim ssotoken.Claim
	issuer := &mockTokenIssuer{
		loginURLFunc: func(claim ssotoken.Claim) (string, *service.IssueResult, error) {
			gotClaim = claim
			now := time.Now()
			return "https://shop.example.com/account/sso?token=minted", &service.IssueResult{
				Token:     "minted",
				IssuedAt:  now,
				ExpiresAt: now.Add(15 * time.Minute),
			}, nil
		},
	}
	handlers := &SSOHandlers{Svc: &mockSSOService{}, Issuer: issuer}

	session := &domainauth.Session{
		ID:                "sess-123",
		Email:             "jane@example.com",
		FirstName:         "Jane",
		ShopifyCustomerID: "98765",
		ExpiresAt:         time.Now().Add(time.Hour),
	}
	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", strings.NewReader(`{"return_to":"/checkout"}`))
	req = req.WithContext(SetSessionInContext(req.Context(), session))
	w := httptest.NewRecorder()

	handlers.IssueToken(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"minted"`)
	assert.Contains(t, w.Body.String(), `"redirect_url":"https://shop.example.com/account/sso?token=minted"`)

	// Identity comes from the session, never from the request body.
	assert.Equal(t, "jane@example.com", gotClaim.Email)
	assert.Equal(t, "Jane", gotClaim.FirstName)
	assert.Equal(t, "98765", gotClaim.ShopifyCustomerID)
	assert.Equal(t, "/checkout", gotClaim.ReturnTo)
}

func TestSSOHandlers_IssueToken_RequiresSession(t *testing.T) {
	handlers := &SSOHandlers{Svc: &mockSSOService{}, Issuer: &mockTokenIssuer{}}

	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", nil)
	w := httptest.NewRecorder()

	handlers.IssueToken(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestSSOHandlers_IssueToken_IssuerFailure(t *testing.T) {
	issuer := &mockTokenIssuer{
		loginURLFunc: func(_ ssotoken.Claim) (string, *service.IssueResult, error) {
			return "", nil, errors.New("seal claim: boom")
		},
	}
	handlers := &SSOHandlers{Svc: &mockSSOService{}, Issuer: issuer}

	session := &domainauth.Session{ID: "sess-123", Email: "jane@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), session))
	w := httptest.NewRecorder()

	handlers.IssueToken(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "issuance_failed")
	// Internal details never reach the client.
	assert.NotContains(t, w.Body.String(), "boom")
}
