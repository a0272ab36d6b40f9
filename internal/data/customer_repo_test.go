package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwanai/shopify-sso-bridge/internal/domain/model"
	apperrors "github.com/xwanai/shopify-sso-bridge/internal/errors"
	"github.com/xwanai/shopify-sso-bridge/internal/testutil"
)

func testEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestCustomerRepo_UpsertByEmail_CreatesThenRefreshes(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCustomerRepo(db)
		email := testEmail("upsert")

		created, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{
			Email:     email,
			FirstName: testutil.StringPtr("Ruth"),
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, email, created.Email)
		require.NotNil(t, created.FirstName)
		assert.Equal(t, "Ruth", *created.FirstName)
		assert.Nil(t, created.LastName)
		assert.NotZero(t, created.CreatedAt)

		// Second upsert for the same email updates in place.
		refreshed, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{
			Email:             email,
			LastName:          testutil.StringPtr("Okafor"),
			ShopifyCustomerID: testutil.StringPtr("8412"),
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, refreshed.ID)
		require.NotNil(t, refreshed.FirstName)
		assert.Equal(t, "Ruth", *refreshed.FirstName, "omitted field keeps prior value")
		require.NotNil(t, refreshed.LastName)
		assert.Equal(t, "Okafor", *refreshed.LastName)
		require.NotNil(t, refreshed.ShopifyCustomerID)
		assert.Equal(t, "8412", *refreshed.ShopifyCustomerID)
	})
}

func TestCustomerRepo_UpsertByEmail_NormalizesEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCustomerRepo(db)
		email := testEmail("mixedcase")

		created, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{
			Email: "  " + strings.ToUpper(email) + " ",
		})
		require.NoError(t, err)
		assert.Equal(t, email, created.Email)

		got, err := repo.GetByEmail(ctx, strings.ToUpper(email))
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})
}

func TestCustomerRepo_UpsertByEmail_Validation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewCustomerRepo(db)

		_, err := repo.UpsertByEmail(context.Background(), &model.UpsertCustomerRequest{Email: "   "})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		_, err = repo.UpsertByEmail(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCustomerRepo_GetByEmail_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewCustomerRepo(db)

		_, err := repo.GetByEmail(context.Background(), testEmail("missing"))
		require.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestCustomerRepo_DeleteByShopifyCustomerID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCustomerRepo(db)
		email := testEmail("delete")

		_, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{
			Email:             email,
			ShopifyCustomerID: testutil.StringPtr("9001"),
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByShopifyCustomerID(ctx, "9001"))

		_, err = repo.GetByEmail(ctx, email)
		require.ErrorIs(t, err, ErrCustomerNotFound)

		// Deleting an absent customer is a no-op, not an error.
		require.NoError(t, repo.DeleteByShopifyCustomerID(ctx, "9001"))
	})
}

func TestCustomerRepo_UpsertUsesTimeProvider(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fixed := NewFixedTimeProvider(testutil.TestTime())
		repo := NewCustomerRepoWithTimeProvider(db, fixed)
		email := testEmail("frozen")

		created, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{Email: email})
		require.NoError(t, err)
		assert.True(t, created.UpdatedAt.Equal(testutil.TestTime()))

		fixed.AddTime(time.Hour)
		refreshed, err := repo.UpsertByEmail(ctx, &model.UpsertCustomerRequest{Email: email})
		require.NoError(t, err)
		assert.True(t, refreshed.UpdatedAt.Equal(testutil.TestTime().Add(time.Hour)))
	})
}
