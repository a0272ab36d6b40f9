package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession_NoCookie(t *testing.T) {
	mw := RequireSession(&mockSSOService{}, "xwanai_session")

	called := false
	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
	assert.False(t, called)
}

func TestRequireSession_InvalidSession(t *testing.T) {
	mockSvc := &mockSSOService{
		getSessionFunc: func(_ context.Context, _ string) (*domainauth.Session, error) {
			return nil, service.ErrSessionExpired
		},
	}
	mw := RequireSession(mockSvc, "xwanai_session")

	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run for an expired session")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "stale"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSession_ValidSessionInContext(t *testing.T) {
	mw := RequireSession(&mockSSOService{}, "xwanai_session")

	var gotSession *domainauth.Session
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sso/token", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "sess-123"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, gotSession)
	assert.Equal(t, "sess-123", gotSession.ID)
	assert.Equal(t, "test@example.com", gotSession.Email)
}

func TestOptionalSession(t *testing.T) {
	mw := OptionalSession(&mockSSOService{}, "xwanai_session")

	var gotSession *domainauth.Session
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Without a cookie the request still reaches the handler.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotSession)

	// With a cookie the session is attached.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "xwanai_session", Value: "sess-123"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotSession)
	assert.Equal(t, "sess-123", gotSession.ID)
}

func TestLogging_CapturesStatus(t *testing.T) {
	mw := Logging(discardLogger())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRecover_TurnsPanicInto500(t *testing.T) {
	mw := Recover(discardLogger())

	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSafeReturnTo(t *testing.T) {
	h := &SSOHandlers{DefaultReturnTo: "/account"}

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{name: "empty", candidate: "", want: "/account"},
		{name: "relative path", candidate: "/orders", want: "/orders"},
		{name: "with query", candidate: "/orders?page=2", want: "/orders?page=2"},
		{name: "absolute url", candidate: "https://evil.example.com/", want: "/account"},
		{name: "scheme relative", candidate: "//evil.example.com/", want: "/account"},
		{name: "missing slash", candidate: "orders", want: "/account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.safeReturnTo(tt.candidate))
		})
	}
}

func testSession() *domainauth.Session {
	return &domainauth.Session{
		ID:        "sess-ctx",
		Email:     "ctx@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUserSessionFromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, GetSessionFromContext(ctx))

	session := testSession()
	ctx = SetSessionInContext(ctx, session)

	got, ok := GetUserSessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, session, got)
}

func TestSetSessionInContext_NilSession(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
}
