package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	"github.com/xwanai/shopify-sso-bridge/internal/mocks"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

func newTestCodec(t *testing.T) *ssotoken.Codec {
	t.Helper()
	codec, err := ssotoken.New(ssotoken.Config{Secret: "service-test-secret"})
	require.NoError(t, err)
	return codec
}

func mintToken(t *testing.T, codec *ssotoken.Codec, claim ssotoken.Claim) string {
	t.Helper()
	token, _, err := codec.Issue(claim)
	require.NoError(t, err)
	return token
}

func TestSSOService_CompleteSSO_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := newTestCodec(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     codec,
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	token := mintToken(t, codec, ssotoken.Claim{
		Email:             "jo@example.com",
		FirstName:         "Jo",
		LastName:          "Nyberg",
		ShopifyCustomerID: "777",
		ReturnTo:          "/orders",
	})

	stored := &model.Customer{ID: "c-1", Email: "jo@example.com"}
	customers.EXPECT().
		UpsertByEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.UpsertCustomerRequest) (*model.Customer, error) {
			assert.Equal(t, "jo@example.com", req.Email)
			require.NotNil(t, req.FirstName)
			assert.Equal(t, "Jo", *req.FirstName)
			require.NotNil(t, req.ShopifyCustomerID)
			assert.Equal(t, "777", *req.ShopifyCustomerID)
			require.NotNil(t, req.ShopDomain)
			assert.Equal(t, "demo.myshopify.com", *req.ShopDomain)
			return stored, nil
		})

	var saved domainauth.Session
	sessions.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sess domainauth.Session) error {
			saved = sess
			return nil
		})

	res, err := svc.CompleteSSO(context.Background(), CompleteSSOInput{
		Token:      token,
		ShopDomain: "demo.myshopify.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "/orders", res.ReturnTo)
	assert.NotEmpty(t, res.Session.ID)
	assert.Equal(t, saved.ID, res.Session.ID)
	assert.Equal(t, "jo@example.com", res.Session.Email)
	assert.Equal(t, "777", res.Session.ShopifyCustomerID)
	assert.Equal(t, "demo.myshopify.com", res.Session.ShopDomain)
	assert.WithinDuration(t, time.Now().Add(domainauth.DefaultSessionTTL), res.Session.ExpiresAt, time.Minute)
}

func TestSSOService_CompleteSSO_RejectsBadToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := newTestCodec(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     codec,
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	// Token minted with a different secret must be rejected before any
	// storage access. No mock expectations are set: a call would fail.
	other, err := ssotoken.New(ssotoken.Config{Secret: "another-secret"})
	require.NoError(t, err)
	token := mintToken(t, other, ssotoken.Claim{Email: "jo@example.com"})

	_, err = svc.CompleteSSO(context.Background(), CompleteSSOInput{Token: token})
	require.Error(t, err)
	assert.True(t, ssotoken.IsRejection(err))
}

func TestSSOService_CompleteSSO_ShopDomainPolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := newTestCodec(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:       codec,
		Sessions:    sessions,
		Customers:   customers,
		ShopDomains: NewShopDomainPolicy([]string{"allowed.myshopify.com"}),
	})
	require.NoError(t, err)

	token := mintToken(t, codec, ssotoken.Claim{Email: "jo@example.com"})

	_, err = svc.CompleteSSO(context.Background(), CompleteSSOInput{
		Token:      token,
		ShopDomain: "evil.myshopify.com",
	})
	require.ErrorIs(t, err, ErrShopDomainNotAllowed)
}

func TestSSOService_CompleteSSO_SaveSessionFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := newTestCodec(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     codec,
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	token := mintToken(t, codec, ssotoken.Claim{Email: "jo@example.com"})

	customers.EXPECT().
		UpsertByEmail(gomock.Any(), gomock.Any()).
		Return(&model.Customer{ID: "c-1", Email: "jo@example.com"}, nil)
	sessions.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	_, err = svc.CompleteSSO(context.Background(), CompleteSSOInput{Token: token})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestSSOService_GetSession_ExpiredIsDeleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     newTestCodec(t),
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	sessions.EXPECT().
		Get(gomock.Any(), "sess-1").
		Return(domainauth.Session{ID: "sess-1", ExpiresAt: time.Now().Add(-time.Hour)}, nil)
	sessions.EXPECT().Delete(gomock.Any(), "sess-1").Return(nil)

	_, err = svc.GetSession(context.Background(), "sess-1")
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestSSOService_GetSession_Valid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     newTestCodec(t),
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	want := domainauth.Session{ID: "sess-2", Email: "jo@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	sessions.EXPECT().Get(gomock.Any(), "sess-2").Return(want, nil)

	got, err := svc.GetSession(context.Background(), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, want.Email, got.Email)
}

func TestSSOService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	svc, err := NewSSOService(SSOServiceOptions{
		Codec:     newTestCodec(t),
		Sessions:  sessions,
		Customers: customers,
	})
	require.NoError(t, err)

	// Empty ID is a no-op, no store access.
	require.NoError(t, svc.Logout(context.Background(), ""))

	sessions.EXPECT().Delete(gomock.Any(), "sess-3").Return(nil)
	require.NoError(t, svc.Logout(context.Background(), "sess-3"))
}

func TestNewSSOService_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := newTestCodec(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	customers := mocks.NewMockCustomerRepository(ctrl)

	_, err := NewSSOService(SSOServiceOptions{Sessions: sessions, Customers: customers})
	require.Error(t, err)

	_, err = NewSSOService(SSOServiceOptions{Codec: codec, Customers: customers})
	require.Error(t, err)

	_, err = NewSSOService(SSOServiceOptions{Codec: codec, Sessions: sessions})
	require.Error(t, err)
}
