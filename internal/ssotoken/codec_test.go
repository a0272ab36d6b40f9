package ssotoken

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, cfg Config) *Codec {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-shared-secret"
	}
	codec, err := New(cfg)
	require.NoError(t, err)
	return codec
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}

func TestNew_Defaults(t *testing.T) {
	codec := newTestCodec(t, Config{})
	assert.Equal(t, DefaultTTL, codec.TTL())
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t, Config{})

	original := Claim{
		Email:             "a@b.com",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		ShopifyCustomerID: "7001",
		ReturnTo:          "/account/orders",
	}

	token, stamped, err := codec.Issue(original)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, stamped.IssuedAt.IsZero(), "issuer stamps IssuedAt")

	verified, err := codec.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, original.Email, verified.Email)
	assert.Equal(t, original.FirstName, verified.FirstName)
	assert.Equal(t, original.LastName, verified.LastName)
	assert.Equal(t, original.ShopifyCustomerID, verified.ShopifyCustomerID)
	assert.Equal(t, original.ReturnTo, verified.ReturnTo)
	assert.True(t, verified.IssuedAt.Equal(stamped.IssuedAt))
}

func TestCodec_IssueRequiresEmail(t *testing.T) {
	codec := newTestCodec(t, Config{})

	_, _, err := codec.Issue(Claim{FirstName: "NoEmail"})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestCodec_IssueIgnoresCallerSuppliedIssuedAt(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, Config{Now: func() time.Time { return now }})

	token, stamped, err := codec.Issue(Claim{
		Email:    "a@b.com",
		IssuedAt: now.Add(-24 * time.Hour), // must be overwritten
	})
	require.NoError(t, err)
	assert.True(t, stamped.IssuedAt.Equal(now))

	verified, err := codec.Verify(token)
	require.NoError(t, err)
	assert.True(t, verified.IssuedAt.Equal(now))
}

func TestCodec_TokenIsURLSafeWithoutPadding(t *testing.T) {
	codec := newTestCodec(t, Config{})

	token, _, err := codec.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), minTokenLength)
}

func TestCodec_VerifyAcceptsPaddedEncoding(t *testing.T) {
	codec := newTestCodec(t, Config{})

	token, _, err := codec.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	padded := base64.URLEncoding.EncodeToString(raw)

	verified, err := codec.Verify(padded)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", verified.Email)
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	issuer := newTestCodec(t, Config{Now: func() time.Time { return issuedAt }})
	token, _, err := issuer.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"immediately", 0, false},
		{"just inside the window", 14*time.Minute + 59*time.Second, false},
		{"exactly at the window", 15 * time.Minute, false},
		{"just outside the window", 15*time.Minute + time.Second, true},
		{"well outside the window", 16 * time.Minute, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := newTestCodec(t, Config{
				Now: func() time.Time { return issuedAt.Add(tc.elapsed) },
			})

			claim, verifyErr := verifier.Verify(token)
			if tc.expired {
				require.Error(t, verifyErr)
				assert.True(t, IsTokenExpired(verifyErr), "unexpected kind %q", KindOf(verifyErr))
				return
			}
			require.NoError(t, verifyErr)
			assert.Equal(t, "a@b.com", claim.Email)
		})
	}
}

func TestCodec_RejectsFutureDatedClaims(t *testing.T) {
	issuedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	issuer := newTestCodec(t, Config{Now: func() time.Time { return issuedAt }})
	token, _, err := issuer.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	// Within the skew tolerance the verifier clock may lag the issuer.
	lagging := newTestCodec(t, Config{
		Now: func() time.Time { return issuedAt.Add(-20 * time.Second) },
	})
	_, err = lagging.Verify(token)
	require.NoError(t, err)

	// Beyond the tolerance a future-dated claim is rejected outright.
	farBehind := newTestCodec(t, Config{
		Now: func() time.Time { return issuedAt.Add(-2 * time.Minute) },
	})
	_, err = farBehind.Verify(token)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestCodec_WrongSecretRejected(t *testing.T) {
	issuer := newTestCodec(t, Config{Secret: "secret-a"})
	verifier := newTestCodec(t, Config{Secret: "secret-b"})

	token, _, err := issuer.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.True(t, IsAuthenticationFailure(err))
}

func TestCodec_TamperedTokenNeverYieldsClaim(t *testing.T) {
	codec := newTestCodec(t, Config{})

	token, _, err := codec.Issue(Claim{Email: "a@b.com", FirstName: "Ada"})
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x80

		_, verifyErr := codec.Verify(base64.RawURLEncoding.EncodeToString(mutated))
		require.Error(t, verifyErr, "byte %d", i)
		assert.True(t, IsAuthenticationFailure(verifyErr) || IsMalformedToken(verifyErr),
			"byte %d: unexpected kind %q", i, KindOf(verifyErr))
	}
}

func TestCodec_LastCharacterCorruptionDoesNotPanic(t *testing.T) {
	codec := newTestCodec(t, Config{})

	token, _, err := codec.Issue(Claim{Email: "a@b.com"})
	require.NoError(t, err)

	last := token[len(token)-1]
	replacement := byte('A')
	if last == replacement {
		replacement = 'B'
	}
	corrupted := token[:len(token)-1] + string(replacement)

	_, err = codec.Verify(corrupted)
	require.Error(t, err)
	assert.True(t, IsRejection(err))
}

func TestCodec_VerifyIsIdempotent(t *testing.T) {
	codec := newTestCodec(t, Config{})

	token, _, err := codec.Issue(Claim{Email: "a@b.com", ReturnTo: "/"})
	require.NoError(t, err)

	first, err := codec.Verify(token)
	require.NoError(t, err)
	second, err := codec.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCodec_MalformedInputs(t *testing.T) {
	codec := newTestCodec(t, Config{})

	cases := map[string]string{
		"empty":             "",
		"not base64":        "!!!not-base64!!!",
		"too short":         base64.RawURLEncoding.EncodeToString([]byte("tiny")),
		"standard alphabet": "abc+/def",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Verify(token)
			require.Error(t, err)
			assert.True(t, IsMalformedToken(err), "unexpected kind %q", KindOf(err))
		})
	}
}
