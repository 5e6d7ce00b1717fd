// Package hkdf derives per-purpose AES-256 keys from the service's master
// key material, so escrow, store, and cache encryption each use an
// independently-derived key rather than the master key directly.
package hkdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every key this package derives (AES-256).
const KeySize = 32

// Derive runs HKDF-SHA-256 over secret with the given salt and info,
// returning a KeySize-byte key. info should uniquely identify the purpose
// (e.g. "zeroid/escrow/envelope", "zeroid/store/kv") so that keys derived
// for different components never collide even from the same secret.
func Derive(secret, salt []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("hkdf: derive key for %q: %w", info, err)
	}
	return key, nil
}
