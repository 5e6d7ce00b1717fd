package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestEscrowStorePutGet(t *testing.T) {
	env := newTestEnvelope(t, "test/escrow")
	s := NewEscrowStore(env)
	ctx := context.Background()

	entry := types.EscrowEntry{
		ID:             "escrow-1",
		CredentialID:   "cred-1",
		RegulatorKeyID: "default",
		ExpiresAt:      1000,
	}
	require.NoError(t, s.Put(ctx, entry))

	got, err := s.Get(ctx, "escrow-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "default", got.RegulatorKeyID)
}

func TestEscrowStoreInvalidateShreds(t *testing.T) {
	env := newTestEnvelope(t, "test/escrow")
	s := NewEscrowStore(env)
	ctx := context.Background()

	entry := types.EscrowEntry{
		ID:            "escrow-2",
		CredentialID:  "cred-2",
		EncryptedBlob: types.EncryptedBlob{Ciphertext: "deadbeef"},
	}
	require.NoError(t, s.Put(ctx, entry))
	require.NoError(t, s.Invalidate(ctx, "escrow-2"))

	got, err := s.Get(ctx, "escrow-2")
	require.NoError(t, err)
	require.True(t, got.Invalidated)
	require.Empty(t, got.EncryptedBlob.Ciphertext)
	require.Equal(t, "INVALIDATED", got.IntegrityHash)
}

func TestEscrowStoreInvalidateRejectsMissing(t *testing.T) {
	env := newTestEnvelope(t, "test/escrow")
	s := NewEscrowStore(env)
	require.Error(t, s.Invalidate(context.Background(), "absent"))
}

func TestEscrowStoreListExpired(t *testing.T) {
	env := newTestEnvelope(t, "test/escrow")
	s := NewEscrowStore(env)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, types.EscrowEntry{ID: "old", ExpiresAt: 100}))
	require.NoError(t, s.Put(ctx, types.EscrowEntry{ID: "new", ExpiresAt: 9999}))

	expired, err := s.ListExpired(ctx, 500)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "old", expired[0].ID)
}
