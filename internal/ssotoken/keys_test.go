package ssotoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeys_Deterministic(t *testing.T) {
	first, err := DeriveKeys("shared-secret")
	require.NoError(t, err)

	second, err := DeriveKeys("shared-secret")
	require.NoError(t, err)

	assert.Equal(t, first.Encryption, second.Encryption)
	assert.Equal(t, first.MAC, second.MAC)
}

func TestDeriveKeys_SplitsDigestIntoHalves(t *testing.T) {
	keys, err := DeriveKeys("shared-secret")
	require.NoError(t, err)

	assert.Len(t, keys.Encryption, 16)
	assert.Len(t, keys.MAC, 16)
	assert.NotEqual(t, keys.Encryption, keys.MAC)
}

func TestDeriveKeys_DifferentSecretsDifferentKeys(t *testing.T) {
	a, err := DeriveKeys("secret-a")
	require.NoError(t, err)

	b, err := DeriveKeys("secret-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Encryption, b.Encryption)
	assert.NotEqual(t, a.MAC, b.MAC)
}

func TestDeriveKeys_EmptySecret(t *testing.T) {
	_, err := DeriveKeys("")
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}
