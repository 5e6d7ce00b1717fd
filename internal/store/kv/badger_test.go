package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/log"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []byte("k1"), []byte("v1")))

	v, err := s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	exists, err := s.Exists(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, s.Delete(ctx, []byte("k1")))

	v, err = s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Nil(t, v)

	exists, err = s.Exists(ctx, []byte("k1"))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestGetMissingKeyReturnsNilNil(t *testing.T) {
	s := openTestStore(t)
	v, err := s.Get(context.Background(), []byte("missing"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSetWithTTLExpires(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Badger records expiry in whole seconds, so the TTL and the wait are too.
	require.NoError(t, s.SetWithTTL(ctx, []byte("ephemeral"), []byte("v"), 2*time.Second))
	v, err := s.Get(ctx, []byte("ephemeral"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	time.Sleep(3 * time.Second)
	v, err = s.Get(ctx, []byte("ephemeral"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPrefixScan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []byte("escrow:1"), []byte("a")))
	require.NoError(t, s.Set(ctx, []byte("escrow:2"), []byte("b")))
	require.NoError(t, s.Set(ctx, []byte("credential:1"), []byte("c")))

	results, err := s.PrefixScan(ctx, []byte("escrow:"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, []byte("a"), results["escrow:1"])
	require.Equal(t, []byte("b"), results["escrow:2"])
}

func TestRangeScan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Set(ctx, []byte("b"), []byte("2")))
	require.NoError(t, s.Set(ctx, []byte("c"), []byte("3")))

	results, err := s.RangeScan(ctx, []byte("a"), []byte("c"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Contains(t, results, "a")
	require.Contains(t, results, "b")
	require.NotContains(t, results, "c")
}

func TestRunInTransactionCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx *Transaction) error {
		return tx.Set([]byte("tx-key"), []byte("tx-value"))
	})
	require.NoError(t, err)

	v, err := s.Get(ctx, []byte("tx-key"))
	require.NoError(t, err)
	require.Equal(t, []byte("tx-value"), v)
}

func TestRunInTransactionDiscardsOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx *Transaction) error {
		if setErr := tx.Set([]byte("rolled-back"), []byte("x")); setErr != nil {
			return setErr
		}
		return context.Canceled
	})
	require.Error(t, err)

	v, getErr := s.Get(ctx, []byte("rolled-back"))
	require.NoError(t, getErr)
	require.Nil(t, v)
}
