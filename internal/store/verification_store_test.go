package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestVerificationStorePutGet(t *testing.T) {
	env := newTestEnvelope(t, "test/verification")
	s := NewVerificationStore(env)
	ctx := context.Background()

	rec := types.VerificationRecord{ID: "v1", Status: types.VerificationPending}
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, types.VerificationPending, got.Status)
}

func TestVerificationStoreTransitionMutatesAndPersists(t *testing.T) {
	env := newTestEnvelope(t, "test/verification")
	s := NewVerificationStore(env)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, types.VerificationRecord{ID: "v2", Status: types.VerificationPending}))

	err := s.Transition(ctx, "v2", func(r *types.VerificationRecord) error {
		r.Status = types.VerificationVerified
		r.CredentialID = "cred-9"
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "v2")
	require.NoError(t, err)
	require.Equal(t, types.VerificationVerified, got.Status)
	require.Equal(t, "cred-9", got.CredentialID)
}

func TestVerificationStoreTransitionRejectsMissing(t *testing.T) {
	env := newTestEnvelope(t, "test/verification")
	s := NewVerificationStore(env)

	err := s.Transition(context.Background(), "absent", func(r *types.VerificationRecord) error {
		return nil
	})
	require.Error(t, err)
}
