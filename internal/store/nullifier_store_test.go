package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestNullifierStoreRegisterOnce(t *testing.T) {
	env := newTestEnvelope(t, "test/nullifier")
	s := NewNullifierStore(env)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, types.NullifierEntry{Nullifier: "111", AppID: "app-1"}))

	used, err := s.IsUsed(ctx, "111")
	require.NoError(t, err)
	require.True(t, used)
}

func TestNullifierStoreRejectsReuse(t *testing.T) {
	env := newTestEnvelope(t, "test/nullifier")
	s := NewNullifierStore(env)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, types.NullifierEntry{Nullifier: "222"}))
	err := s.Register(ctx, types.NullifierEntry{Nullifier: "222"})
	require.ErrorIs(t, err, ErrNullifierAlreadyUsed)
}

func TestNullifierStoreConcurrentRegisterOnlyOneWins(t *testing.T) {
	env := newTestEnvelope(t, "test/nullifier")
	s := NewNullifierStore(env)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	successes := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			successes[i] = s.Register(ctx, types.NullifierEntry{Nullifier: "333"})
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range successes {
		if err == nil {
			okCount++
			continue
		}
		require.ErrorIs(t, err, ErrNullifierAlreadyUsed, "losing attempts must fail with the replay sentinel, not a raw commit conflict")
	}
	require.Equal(t, 1, okCount)
}
