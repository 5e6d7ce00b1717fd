package store

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
)

func newTestEnvelope(t *testing.T, info string) *Envelope {
	t.Helper()
	kvStore, err := kv.Open(kv.Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kvStore.Close()) })

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)

	env, err := NewEnvelope(kvStore, masterKey, info)
	require.NoError(t, err)
	return env
}

func TestEnvelopePutGetRoundTrip(t *testing.T) {
	env := newTestEnvelope(t, "test/envelope")
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, env.Put(ctx, []byte("k1"), payload{Name: "alice"}))

	var out payload
	found, err := env.Get(ctx, []byte("k1"), &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", out.Name)
}

func TestEnvelopeGetMissingReturnsFalse(t *testing.T) {
	env := newTestEnvelope(t, "test/envelope")
	var out map[string]string
	found, err := env.Get(context.Background(), []byte("missing"), &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEnvelopeDifferentKeyCannotDecryptWrongEntry(t *testing.T) {
	env := newTestEnvelope(t, "test/envelope")
	ctx := context.Background()

	require.NoError(t, env.Put(ctx, []byte("a"), map[string]string{"v": "1"}))

	blob, err := env.KV().Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.NoError(t, env.KV().Set(ctx, []byte("b"), blob))

	var out map[string]string
	_, err = env.Get(ctx, []byte("b"), &out)
	require.Error(t, err)
}
