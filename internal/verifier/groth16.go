// Package verifier implements Groth16 proof verification against
// snarkjs/circomlib-format proofs and verification keys, plus the
// fingerprint cache and nullifier single-use enforcement layered on top.
package verifier

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	rapidsnark "github.com/iden3/go-rapidsnark/types"
	rapidsnarkverifier "github.com/iden3/go-rapidsnark/verifier"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// publicSignalNullifierIndex and publicSignalAppIDIndex are the fixed
// positions spec.md §4.6 assigns in the KYC circuit's public signal
// layout: [issuerPubKey.Ax, issuerPubKey.Ay, requiredAge,
// restrictedCountryCode, appId, nullifier, credentialHash].
const (
	publicSignalAppIDIndex     = 4
	publicSignalNullifierIndex = 5
)

// VerificationKey holds the loaded Groth16 verification key, kept as raw
// JSON bytes since rapidsnark's verifier takes the key in that form
// directly and this service never inspects its internal structure.
type VerificationKey struct {
	raw []byte
}

// LoadVerificationKey reads and validates a Groth16 verification key JSON
// file at path.
func LoadVerificationKey(path string) (*VerificationKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: read verification key %q: %w", path, err)
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("verifier: parse verification key %q: %w", path, err)
	}
	return &VerificationKey{raw: data}, nil
}

// Groth16Verifier verifies snarkjs-format proofs against a fixed
// verification key, loaded once at boot and safe for concurrent use (the
// underlying rapidsnark verifier performs no mutation of shared state).
type Groth16Verifier struct {
	mu sync.RWMutex
	vk *VerificationKey
}

// NewGroth16Verifier constructs a Groth16Verifier bound to vk. vk may be
// nil, in which case Verify always fails with ErrNoVerificationKey until
// SetVerificationKey is called (e.g. after a hot config reload).
func NewGroth16Verifier(vk *VerificationKey) *Groth16Verifier {
	return &Groth16Verifier{vk: vk}
}

// ErrNoVerificationKey is returned by Verify when no verification key has
// been loaded, surfaced as a 503 by the HTTP layer.
var ErrNoVerificationKey = fmt.Errorf("verifier: no verification key loaded")

// SetVerificationKey atomically replaces the active verification key.
func (g *Groth16Verifier) SetVerificationKey(vk *VerificationKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vk = vk
}

// Verify checks proof against publicSignals, extracting the nullifier and
// appId from their fixed positions per spec.md §4.6.
func (g *Groth16Verifier) Verify(proof types.Proof, publicSignals []string) (valid bool, nullifier, appID string, err error) {
	g.mu.RLock()
	vk := g.vk
	g.mu.RUnlock()
	if vk == nil {
		return false, "", "", ErrNoVerificationKey
	}

	if len(publicSignals) <= publicSignalNullifierIndex {
		return false, "", "", fmt.Errorf("verifier: expected at least %d public signals, got %d", publicSignalNullifierIndex+1, len(publicSignals))
	}
	nullifier = publicSignals[publicSignalNullifierIndex]
	appID = publicSignals[publicSignalAppIDIndex]

	zkProof := rapidsnark.ZKProof{
		Proof: &rapidsnark.ProofData{
			A:        proof.PiA[:],
			B:        [][]string{proof.PiB[0][:], proof.PiB[1][:], proof.PiB[2][:]},
			C:        proof.PiC[:],
			Protocol: proof.Protocol,
		},
		PubSignals: publicSignals,
	}

	if verifyErr := rapidsnarkverifier.VerifyGroth16(zkProof, vk.raw); verifyErr != nil {
		return false, nullifier, appID, nil
	}
	return true, nullifier, appID, nil
}
