package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/xwanai/shopify-sso-bridge/internal/domain/auth"
	"github.com/xwanai/shopify-sso-bridge/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests are skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string) domainauth.Session {
	return domainauth.Session{
		ID:                id,
		Email:             "customer@example.com",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		ShopifyCustomerID: "7001",
		ShopDomain:        "demo.myshopify.com",
		ExpiresAt:         time.Now().Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-1")
	require.NoError(t, store.Save(ctx, session))

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.ShopifyCustomerID, retrieved.ShopifyCustomerID)
	assert.Equal(t, session.ShopDomain, retrieved.ShopDomain)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_RejectsExpiredSessionOnSave(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	session := testSession("already-expired")
	session.ExpiresAt = time.Now().Add(-time.Minute)
	assert.Error(t, store.Save(context.Background(), session))
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-delete")
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, session.ID))

	_, err := store.Get(ctx, session.ID)
	assert.Equal(t, ErrNotFound, err)

	// Deleting an absent session is a no-op.
	assert.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestSessionStore_CustomPrefixIsolation(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	a := NewSessionStoreWithPrefix(client, "a:")
	b := NewSessionStoreWithPrefix(client, "b:")

	require.NoError(t, a.Save(ctx, testSession("shared-id")))

	_, err := b.Get(ctx, "shared-id")
	assert.Equal(t, ErrNotFound, err)
}
