package verifier

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func newTestCache(t *testing.T, clk clock.Clock) *Cache {
	t.Helper()
	kvStore, err := kv.Open(kv.Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kvStore.Close()) })

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)

	env, err := store.NewEnvelope(kvStore, masterKey, "test/proofcache")
	require.NoError(t, err)
	return NewCache(store.NewProofCacheStore(env), clk)
}

func TestCacheSetThenGetHitsL1(t *testing.T) {
	c := newTestCache(t, clock.NewSystemClock())
	ctx := context.Background()

	entry := types.ProofCacheEntry{ProofFingerprint: "fp1", Valid: true, Nullifier: "n1"}
	require.NoError(t, c.Set(ctx, entry))

	got, ok, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Valid)
}

func TestCacheL2HitPromotesToL1(t *testing.T) {
	c := newTestCache(t, clock.NewSystemClock())
	ctx := context.Background()

	require.NoError(t, c.l2.Put(ctx, types.ProofCacheEntry{ProofFingerprint: "fp2", Valid: true}, time.Hour))
	require.Equal(t, 0, c.l1.Len())

	_, ok, err := c.Get(ctx, "fp2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, c.l1.Len())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	lru := newLRUCache(2, time.Hour, clock.NewSystemClock())
	lru.Set("a", types.ProofCacheEntry{ProofFingerprint: "a"})
	lru.Set("b", types.ProofCacheEntry{ProofFingerprint: "b"})
	lru.Get("a") // touch a, making b the least-recently-used
	lru.Set("c", types.ProofCacheEntry{ProofFingerprint: "c"})

	_, ok := lru.Get("b")
	require.False(t, ok)
	_, ok = lru.Get("a")
	require.True(t, ok)
	_, ok = lru.Get("c")
	require.True(t, ok)
}

func TestLRUExpiresByTTL(t *testing.T) {
	now := time.Now()
	fixed := &tickingClock{at: now}
	lru := newLRUCache(10, time.Minute, fixed)

	lru.Set("a", types.ProofCacheEntry{ProofFingerprint: "a"})
	fixed.at = now.Add(2 * time.Minute)

	_, ok := lru.Get("a")
	require.False(t, ok)
}

// tickingClock is a mutable clock.Clock for tests that need to advance time
// after entries are already cached.
type tickingClock struct {
	at time.Time
}

func (c *tickingClock) Now() time.Time { return c.at }
