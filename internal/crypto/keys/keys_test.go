package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPoolGetIsZeroed(t *testing.T) {
	pool := NewBufferPool(32)
	buf := pool.Get()
	require.Len(t, buf, 32)
	require.True(t, bytes.Equal(buf, make([]byte, 32)))
}

func TestBufferPoolPutWipesBeforeReuse(t *testing.T) {
	pool := NewBufferPool(32)
	buf := pool.Get()
	for i := range buf {
		buf[i] = 0xAB
	}

	pool.Put(buf)

	require.True(t, bytes.Equal(buf, make([]byte, 32)), "buffer must be wiped on Put")

	reused := pool.Get()
	require.True(t, bytes.Equal(reused, make([]byte, 32)))
}

func TestBufferPoolDiscardsWrongSize(t *testing.T) {
	pool := NewBufferPool(32)
	wrong := make([]byte, 16)
	for i := range wrong {
		wrong[i] = 0xFF
	}

	pool.Put(wrong) // should not panic; wiped and dropped

	require.True(t, bytes.Equal(wrong, make([]byte, 16)))
}

func TestWipeOverwritesData(t *testing.T) {
	data := []byte("a secret private key material")
	Wipe(data)
	require.True(t, bytes.Equal(data, make([]byte, len(data))))
}
