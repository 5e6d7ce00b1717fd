// Package eddsa wraps EdDSA signing over the BabyJubJub curve, used by the
// issuer to sign credentials.
package eddsa

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
)

// PrivateKey is a BabyJubJub private key, wrapping go-iden3-crypto's type so
// callers of this package never import it directly.
type PrivateKey struct {
	inner babyjub.PrivateKey
}

// PublicKey is the corresponding BabyJubJub public key.
type PublicKey struct {
	inner babyjub.PublicKey
}

// Signature is a Poseidon-EdDSA signature (R8, S).
type Signature struct {
	inner babyjub.Signature
}

// GenerateKey creates a new random private key.
func GenerateKey() (*PrivateKey, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("eddsa: generate key: %w", err)
	}
	sk := babyjub.PrivateKey(seed)
	return &PrivateKey{inner: sk}, nil
}

// NewPrivateKeyFromBytes loads a private key from a 32-byte seed, e.g. one
// read from ZEROID_ISSUER_PRIVATE_KEY.
func NewPrivateKeyFromBytes(seed []byte) (*PrivateKey, error) {
	if len(seed) != 32 {
		return nil, fmt.Errorf("eddsa: private key seed must be 32 bytes, got %d", len(seed))
	}
	var sk babyjub.PrivateKey
	copy(sk[:], seed)
	return &PrivateKey{inner: sk}, nil
}

// Public derives the public key.
func (k *PrivateKey) Public() *PublicKey {
	pub := k.inner.Public()
	return &PublicKey{inner: *pub}
}

// SignPoseidon signs a single field element message (the credential's
// Poseidon digest) using Poseidon-EdDSA.
func (k *PrivateKey) SignPoseidon(msg *big.Int) (*Signature, error) {
	sig := k.inner.SignPoseidon(msg)
	return &Signature{inner: *sig}, nil
}

// Bytes returns the raw 32-byte seed. Callers must wipe this via
// internal/crypto/keys once done.
func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, k.inner[:])
	return out
}

// VerifyPoseidon checks sig over msg against pub.
func VerifyPoseidon(pub *PublicKey, msg *big.Int, sig *Signature) bool {
	return pub.inner.VerifyPoseidon(msg, &sig.inner)
}

// Compress serializes the public key to its 32-byte compressed form, as
// embedded in issued credentials for downstream signature verification.
func (p *PublicKey) Compress() [32]byte {
	return p.inner.Compress()
}

// X returns the public key's affine X coordinate.
func (p *PublicKey) X() *big.Int { return p.inner.X }

// Y returns the public key's affine Y coordinate.
func (p *PublicKey) Y() *big.Int { return p.inner.Y }

// DecompressPublicKey parses a 32-byte compressed BabyJubJub point.
func DecompressPublicKey(b [32]byte) (*PublicKey, error) {
	comp := babyjub.PublicKeyComp(b)
	pub, err := comp.Decompress()
	if err != nil {
		return nil, fmt.Errorf("eddsa: decompress public key: %w", err)
	}
	return &PublicKey{inner: *pub}, nil
}

// CompressSignature serializes sig to its 64-byte wire form.
func (s *Signature) Compress() [64]byte {
	return s.inner.Compress()
}

// R8 returns the signature's R8 curve point coordinates.
func (s *Signature) R8() (x, y *big.Int) { return s.inner.R8.X, s.inner.R8.Y }

// S returns the signature's scalar component.
func (s *Signature) S() *big.Int { return s.inner.S }

// DecompressSignature parses a 64-byte signature.
func DecompressSignature(b [64]byte) (*Signature, error) {
	sig, err := new(babyjub.Signature).Decompress(b)
	if err != nil {
		return nil, fmt.Errorf("eddsa: decompress signature: %w", err)
	}
	return &Signature{inner: *sig}, nil
}
