package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestCredentialStorePutGet(t *testing.T) {
	env := newTestEnvelope(t, "test/credential")
	s := NewCredentialStore(env)
	ctx := context.Background()

	cred := types.SignedCredential{ID: "cred-1", CredentialHash: "12345", Level: 2}
	require.NoError(t, s.Put(ctx, cred))

	got, err := s.Get(ctx, "cred-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "12345", got.CredentialHash)
}

func TestCredentialStoreGetMissing(t *testing.T) {
	env := newTestEnvelope(t, "test/credential")
	s := NewCredentialStore(env)

	got, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCredentialStoreDelete(t *testing.T) {
	env := newTestEnvelope(t, "test/credential")
	s := NewCredentialStore(env)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, types.SignedCredential{ID: "cred-2"}))
	require.NoError(t, s.Delete(ctx, "cred-2"))

	got, err := s.Get(ctx, "cred-2")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCredentialStoreRejectsEmptyID(t *testing.T) {
	env := newTestEnvelope(t, "test/credential")
	s := NewCredentialStore(env)
	require.Error(t, s.Put(context.Background(), types.SignedCredential{}))
}
