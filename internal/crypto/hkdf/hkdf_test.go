package hkdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	secret := []byte("master-key-material")
	salt := []byte("fixed-salt")

	k1, err := Derive(secret, salt, "zeroid/store/kv")
	require.NoError(t, err)
	k2, err := Derive(secret, salt, "zeroid/store/kv")
	require.NoError(t, err)

	require.True(t, bytes.Equal(k1, k2))
	require.Len(t, k1, KeySize)
}

func TestDeriveDiffersByInfo(t *testing.T) {
	secret := []byte("master-key-material")
	salt := []byte("fixed-salt")

	storeKey, err := Derive(secret, salt, "zeroid/store/kv")
	require.NoError(t, err)
	escrowKey, err := Derive(secret, salt, "zeroid/escrow/envelope")
	require.NoError(t, err)

	require.False(t, bytes.Equal(storeKey, escrowKey))
}
