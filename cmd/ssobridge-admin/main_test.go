package main

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

func captureStdout(t *testing.T, f func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer func() {
		os.Stdout = oldStdout
	}()

	os.Stdout = w

	require.NoError(t, f())

	require.NoError(t, w.Close())
	os.Stdout = oldStdout

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	return string(output)
}

func TestPrintTokenClaimIncludesIdentityAndExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	claim := ssotoken.Claim{
		Email:             "customer@example.com",
		FirstName:         "Pat",
		LastName:          "Doe",
		ShopifyCustomerID: "7001",
		ReturnTo:          "/orders",
		IssuedAt:          issued,
	}

	output := captureStdout(t, func() error {
		return printTokenClaim(claim, 15*time.Minute)
	})

	require.Contains(t, output, "customer@example.com")
	require.Contains(t, output, "/orders")
	require.Contains(t, output, "2025-06-01T12:00:00Z")
	require.Contains(t, output, "2025-06-01T12:15:00Z")
}

func TestPrintMintedTokenOmitsLoginURLWhenUnset(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	minted := mintedToken{
		Token:     "opaque-token",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(15 * time.Minute),
	}

	output := captureStdout(t, func() error {
		return printMintedToken(minted)
	})

	require.Contains(t, output, "opaque-token")
	require.NotContains(t, output, "Login URL")
}

func TestIsLikelyRemoteHost(t *testing.T) {
	cases := []struct {
		host   string
		remote bool
	}{
		{"localhost", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"db.internal.local", false},
		{"", false},
		{"10.1.2.3", true},
		{"db.prod.example.com", true},
	}

	for _, tc := range cases {
		require.Equal(t, tc.remote, isLikelyRemoteHost(tc.host), "host %q", tc.host)
	}
}
