package verification

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	kvStore, err := kv.Open(kv.Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kvStore.Close()) })

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)

	env, err := store.NewEnvelope(kvStore, masterKey, "test/verification")
	require.NoError(t, err)

	return NewService(store.NewVerificationStore(env), clock.NewSystemClock())
}

func TestCreateRejectsInvalidRequirementType(t *testing.T) {
	s := newTestService(t)
	_, err := s.Create(context.Background(), "user-1", []types.VerificationRequirement{{Type: "not_a_type", Value: "x"}})
	require.ErrorIs(t, err, ErrInvalidRequirement)
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	record, err := s.Create(ctx, "user-1", []types.VerificationRequirement{{Type: types.RequirementAgeGTE, Value: "18"}})
	require.NoError(t, err)
	require.Equal(t, types.VerificationPending, record.Status)

	got, err := s.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)
}

func TestGetRejectsUnknownID(t *testing.T) {
	s := newTestService(t)
	_, err := s.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
}
