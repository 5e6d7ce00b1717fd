package verifier

import (
	"context"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// fakeVerifier lets tests control Groth16 outcomes without a real
// verification key.
type fakeVerifier struct {
	valid     bool
	nullifier string
	appID     string
	err       error
}

func (f *fakeVerifier) Verify(proof types.Proof, publicSignals []string) (bool, string, string, error) {
	if f.err != nil {
		return false, "", "", f.err
	}
	return f.valid, f.nullifier, f.appID, nil
}

func newTestVerifierService(t *testing.T, fv proofVerifier) *Service {
	t.Helper()
	kvStore, err := kv.Open(kv.Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kvStore.Close()) })

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)

	cacheEnv, err := store.NewEnvelope(kvStore, masterKey, "test/proofcache")
	require.NoError(t, err)
	nullifierEnv, err := store.NewEnvelope(kvStore, masterKey, "test/nullifier")
	require.NoError(t, err)
	auditEnv, err := store.NewEnvelope(kvStore, masterKey, "test/audit")
	require.NoError(t, err)

	cache := NewCache(store.NewProofCacheStore(cacheEnv), clock.NewSystemClock())
	nullifiers := store.NewNullifierStore(nullifierEnv)
	audit := store.NewAuditStore(auditEnv)

	return NewService(fv, cache, nullifiers, audit, clock.NewSystemClock())
}

func TestVerifyProofValidRegistersNullifier(t *testing.T) {
	svc := newTestVerifierService(t, &fakeVerifier{valid: true, nullifier: "null-1", appID: "app-1"})

	result, err := svc.VerifyProof(context.Background(), types.Proof{}, []string{"0", "1", "2", "3", "app-1", "null-1", "5"})
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "null-1", result.Nullifier)
	require.False(t, result.Cached)
}

func TestVerifyProofSecondCallHitsCache(t *testing.T) {
	fv := &fakeVerifier{valid: true, nullifier: "null-2", appID: "app-1"}
	svc := newTestVerifierService(t, fv)
	ctx := context.Background()
	signals := []string{"0", "1", "2", "3", "app-1", "null-2", "5"}

	_, err := svc.VerifyProof(ctx, types.Proof{}, signals)
	require.NoError(t, err)

	result, err := svc.VerifyProof(ctx, types.Proof{}, signals)
	require.NoError(t, err)
	require.True(t, result.Cached)
}

func TestVerifyProofRejectsNullifierReplay(t *testing.T) {
	svc := newTestVerifierService(t, &fakeVerifier{valid: true, nullifier: "null-3", appID: "app-1"})
	ctx := context.Background()

	_, err := svc.VerifyProof(ctx, types.Proof{}, []string{"0", "1", "2", "3", "app-1", "null-3", "5"})
	require.NoError(t, err)

	// Different proof bytes (different fingerprint) but the same
	// nullifier must still be rejected as a replay.
	signals := []string{"0", "1", "2", "3", "app-1", "null-3", "9"}
	_, err = svc.VerifyProof(ctx, types.Proof{Protocol: "groth16"}, signals)
	require.ErrorIs(t, err, ErrNullifierReplay)
}

func TestVerifyProofPropagatesVerifierError(t *testing.T) {
	svc := newTestVerifierService(t, &fakeVerifier{err: fmt.Errorf("boom")})
	_, err := svc.VerifyProof(context.Background(), types.Proof{}, []string{"0", "1", "2", "3", "4", "5", "6"})
	require.Error(t, err)
}

func TestAggregateIsolatesFailures(t *testing.T) {
	svc := newTestVerifierService(t, &fakeVerifier{valid: true, nullifier: "agg-null", appID: "app-1"})
	ctx := context.Background()

	entries := []types.ProofEntry{
		{Proof: types.Proof{Protocol: "a"}, PublicSignals: []string{"0", "1", "2", "3", "app-1", "agg-null-0", "6"}},
		// Same fake verifier outcome (same nullifier) as the first entry,
		// but a distinct fingerprint. The entries run concurrently, so
		// whichever registers the nullifier second fails as a replay without
		// affecting the other's success.
		{Proof: types.Proof{Protocol: "b"}, PublicSignals: []string{"0", "1", "2", "3", "app-1", "agg-null-0", "9"}},
	}
	result, err := svc.Aggregate(ctx, entries)
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	require.False(t, result.AllValid)
	require.Equal(t, 1, result.ValidCount)
	require.True(t, (result.Results[0].Error == "") != (result.Results[1].Error == ""), "exactly one entry must fail as the replay")
}

func TestAggregateRejectsEmptyOrOversized(t *testing.T) {
	svc := newTestVerifierService(t, &fakeVerifier{valid: true})
	ctx := context.Background()

	_, err := svc.Aggregate(ctx, nil)
	require.ErrorIs(t, err, ErrTooManyProofs)

	tooMany := make([]types.ProofEntry, maxAggregateProofs+1)
	_, err = svc.Aggregate(ctx, tooMany)
	require.ErrorIs(t, err, ErrTooManyProofs)
}
