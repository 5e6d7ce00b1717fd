package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestProofCacheStorePutGet(t *testing.T) {
	env := newTestEnvelope(t, "test/proofcache")
	s := NewProofCacheStore(env)
	ctx := context.Background()

	entry := types.ProofCacheEntry{ProofFingerprint: "fp1", Valid: true, Nullifier: "123"}
	require.NoError(t, s.Put(ctx, entry, time.Hour))

	got, err := s.Get(ctx, "fp1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Valid)
}

func TestProofCacheStoreExpires(t *testing.T) {
	env := newTestEnvelope(t, "test/proofcache")
	s := NewProofCacheStore(env)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, types.ProofCacheEntry{ProofFingerprint: "fp2"}, 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	got, err := s.Get(ctx, "fp2")
	require.NoError(t, err)
	require.Nil(t, got)
}
