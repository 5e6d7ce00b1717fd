package verifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	proof := types.Proof{PiA: [3]string{"1", "2", "3"}, Protocol: "groth16"}
	signals := []string{"1", "2", "3"}

	fp1, err := Fingerprint(proof, signals)
	require.NoError(t, err)
	fp2, err := Fingerprint(proof, signals)
	require.NoError(t, err)
	require.Equal(t, fp1, fp2)
}

func TestFingerprintDiffersOnSignals(t *testing.T) {
	proof := types.Proof{Protocol: "groth16"}

	fp1, err := Fingerprint(proof, []string{"1"})
	require.NoError(t, err)
	fp2, err := Fingerprint(proof, []string{"2"})
	require.NoError(t, err)
	require.NotEqual(t, fp1, fp2)
}
