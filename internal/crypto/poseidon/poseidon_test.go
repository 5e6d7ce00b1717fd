package poseidon

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	a := big.NewInt(1)
	b := big.NewInt(2)

	h1, err := Hash2(a, b)
	require.NoError(t, err)
	h2, err := Hash2(a, b)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
}

// TestHashMatchesReferenceVector pins Hash to the published go-iden3-crypto
// / circomlib Poseidon([1,2]) test vector, so a change to the underlying
// permutation or its parameters (round constants, MDS matrix) is caught
// even though it wouldn't break determinism or argument-order sensitivity.
func TestHashMatchesReferenceVector(t *testing.T) {
	h, err := Hash2(big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("7853200120776062878684798364095072458815029376092732009249414926327459813530", 10)
	require.True(t, ok)
	require.Equal(t, 0, want.Cmp(h))
}

func TestHashDiffersOnOrder(t *testing.T) {
	a := big.NewInt(1)
	b := big.NewInt(2)

	ab, err := Hash2(a, b)
	require.NoError(t, err)
	ba, err := Hash2(b, a)
	require.NoError(t, err)

	require.NotEqual(t, ab, ba)
}

func TestHashRejectsNoInputs(t *testing.T) {
	_, err := Hash()
	require.Error(t, err)
}

func TestMustHashPanicsOnEmpty(t *testing.T) {
	require.Panics(t, func() {
		MustHash()
	})
}
