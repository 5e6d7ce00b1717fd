// Package poseidon wraps the circomlib-compatible Poseidon hash used across
// the credential, nullifier, and sanctions Merkle tree components. This is a
// thin, dependency-isolating wrapper — see DESIGN.md for why go-iden3-crypto
// is used here instead of gnark's Poseidon2 gadget.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// MaxInputs is the largest arity go-iden3-crypto's Poseidon permutation
// supports; every call site in this service stays well under it (arity 2
// for the Merkle tree, arity 3 for the credential commitment).
const MaxInputs = 16

// Hash computes Poseidon(inputs...) over the BN254 scalar field. Each input
// must already be reduced mod the field order; callers that build inputs
// from arbitrary bytes should go through pkg/fieldutil first.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("poseidon: no inputs")
	}
	out, err := poseidon.Hash(inputs)
	if err != nil {
		return nil, fmt.Errorf("poseidon: hash: %w", err)
	}
	return out, nil
}

// Hash2 is the common two-input case used by the Merkle tree's internal
// nodes.
func Hash2(left, right *big.Int) (*big.Int, error) {
	return Hash(left, right)
}

// MustHash panics on error; used only where the inputs are already
// statically known to be in-field (e.g. tests, fixed-arity tree code paths
// guarded elsewhere).
func MustHash(inputs ...*big.Int) *big.Int {
	out, err := Hash(inputs...)
	if err != nil {
		panic(err)
	}
	return out
}
