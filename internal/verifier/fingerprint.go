package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// fingerprintPayload fixes the field order fingerprint's JSON encoding uses,
// so the same (proof, publicSignals) pair always hashes identically
// regardless of how the caller happened to order its own JSON.
type fingerprintPayload struct {
	Proof         types.Proof `json:"proof"`
	PublicSignals []string    `json:"publicSignals"`
}

// Fingerprint computes the SHA-256 hex digest of the canonical JSON
// encoding of (proof, publicSignals), used as the cache key for both L1
// and L2 lookups.
func Fingerprint(proof types.Proof, publicSignals []string) (string, error) {
	data, err := json.Marshal(fingerprintPayload{Proof: proof, PublicSignals: publicSignals})
	if err != nil {
		return "", fmt.Errorf("verifier: marshal fingerprint payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
