// Package fieldutil provides helpers for working with BN254 scalar field
// elements on the wire, where every proof public signal and Poseidon
// input/output is serialized as a decimal string (the snarkjs/circomlib
// convention this service's HTTP API follows).
package fieldutil

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Modulus is the BN254 scalar field order, matching the field Poseidon,
// EdDSA-BabyJubJub, and Groth16 public signals all operate over.
var Modulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10,
)

// ParseDecimal parses a decimal-string field element as found in a proof's
// public signals or a stored commitment, validating it is in [0, Modulus).
func ParseDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("fieldutil: %q is not a valid decimal integer", s)
	}
	if v.Sign() < 0 || v.Cmp(Modulus) >= 0 {
		return nil, fmt.Errorf("fieldutil: value %s out of field range", s)
	}
	return v, nil
}

// ToDecimal serializes a field element back to the wire's decimal-string
// form.
func ToDecimal(v *big.Int) string {
	return v.String()
}

// FromBytes reduces an arbitrary byte slice (e.g. a SHA-256 digest or raw
// PII hash) mod Modulus so it can be used as a Poseidon input.
func FromBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	return v.Mod(v, Modulus)
}

// RandomElement returns a cryptographically random field element, used for
// nullifier salts and escrow nonces that must be unpredictable but
// in-field.
func RandomElement() (*big.Int, error) {
	v, err := rand.Int(rand.Reader, Modulus)
	if err != nil {
		return nil, fmt.Errorf("fieldutil: random element: %w", err)
	}
	return v, nil
}

// Equal reports whether a and b represent the same field element,
// tolerating nil receivers defensively since public-signal parsing can
// produce them on malformed input paths that should fail closed.
func Equal(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
