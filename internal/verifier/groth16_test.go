package verifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func TestLoadVerificationKeyRejectsMissingFile(t *testing.T) {
	_, err := LoadVerificationKey(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadVerificationKeyRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadVerificationKey(path)
	require.Error(t, err)
}

func TestLoadVerificationKeyAcceptsWellFormedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"protocol":"groth16","curve":"bn128"}`), 0o600))

	vk, err := LoadVerificationKey(path)
	require.NoError(t, err)
	require.NotNil(t, vk)
}

func TestGroth16VerifierRejectsWithoutKey(t *testing.T) {
	v := NewGroth16Verifier(nil)
	_, _, _, err := v.Verify(types.Proof{}, []string{"0", "1", "2", "3", "4", "5"})
	require.ErrorIs(t, err, ErrNoVerificationKey)
}

func TestGroth16VerifierRejectsTooFewSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"protocol":"groth16"}`), 0o600))
	vk, err := LoadVerificationKey(path)
	require.NoError(t, err)

	v := NewGroth16Verifier(vk)
	_, _, _, err = v.Verify(types.Proof{}, []string{"0", "1"})
	require.Error(t, err)
}
