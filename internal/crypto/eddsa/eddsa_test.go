package eddsa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	pub := sk.Public()
	msg := big.NewInt(123456789)

	sig, err := sk.SignPoseidon(msg)
	require.NoError(t, err)

	require.True(t, VerifyPoseidon(pub, msg, sig))
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	pub := sk.Public()
	sig, err := sk.SignPoseidon(big.NewInt(1))
	require.NoError(t, err)

	require.False(t, VerifyPoseidon(pub, big.NewInt(2), sig))
}

func TestCompressDecompressPublicKeyRoundTrip(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)
	pub := sk.Public()

	compressed := pub.Compress()
	decompressed, err := DecompressPublicKey(compressed)
	require.NoError(t, err)
	require.Equal(t, pub.Compress(), decompressed.Compress())
}

func TestCompressDecompressSignatureRoundTrip(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)
	sig, err := sk.SignPoseidon(big.NewInt(42))
	require.NoError(t, err)

	compressed := sig.Compress()
	decompressed, err := DecompressSignature(compressed)
	require.NoError(t, err)
	require.Equal(t, sig.Compress(), decompressed.Compress())
}

func TestNewPrivateKeyFromBytesRejectsWrongLength(t *testing.T) {
	_, err := NewPrivateKeyFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
