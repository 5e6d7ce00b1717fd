// Package store layers envelope encryption and typed collections on top of
// internal/store/kv, giving each logical collection (credentials, escrow,
// nullifiers, audit, verification records) its own HKDF-derived AES-256 key
// so a leaked key from one collection never exposes another.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeroidhq/zeroid-core/internal/crypto/aesgcm"
	"github.com/zeroidhq/zeroid-core/internal/crypto/hkdf"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
)

// Envelope wraps a kv.Store, transparently encrypting every value with a
// key derived from the service's master key and a per-collection info
// string, so data at rest is never plaintext even though callers work with
// ordinary Go values.
type Envelope struct {
	kv  *kv.Store
	key []byte
}

// NewEnvelope derives a collection-specific key from masterKey via HKDF and
// returns an Envelope bound to store.
//
// info must be unique per collection (e.g. "zeroid/store/credential") —
// reusing an info string across two collections would let them decrypt
// each other's values.
func NewEnvelope(store *kv.Store, masterKey []byte, info string) (*Envelope, error) {
	key, err := hkdf.Derive(masterKey, nil, info)
	if err != nil {
		return nil, fmt.Errorf("store: derive envelope key for %q: %w", info, err)
	}
	return &Envelope{kv: store, key: key}, nil
}

// Put JSON-marshals value and writes it AES-GCM-sealed under key, using key
// itself as additional authenticated data so a ciphertext copied to a
// different key cannot be decrypted there.
func (e *Envelope) Put(ctx context.Context, key []byte, value interface{}) error {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal value: %w", err)
	}
	blob, err := aesgcm.Seal(e.key, plaintext, key)
	if err != nil {
		return fmt.Errorf("store: seal envelope: %w", err)
	}
	return e.kv.Set(ctx, key, blob)
}

// PutWithTTL behaves like Put but expires the value after ttl.
func (e *Envelope) PutWithTTL(ctx context.Context, key []byte, value interface{}, ttl time.Duration) error {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal value: %w", err)
	}
	blob, err := aesgcm.Seal(e.key, plaintext, key)
	if err != nil {
		return fmt.Errorf("store: seal envelope: %w", err)
	}
	return e.kv.SetWithTTL(ctx, key, blob, ttl)
}

// Get decrypts and unmarshals the value stored under key into out, which
// must be a pointer. It returns (false, nil) if key is absent.
func (e *Envelope) Get(ctx context.Context, key []byte, out interface{}) (bool, error) {
	blob, err := e.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("store: get: %w", err)
	}
	if blob == nil {
		return false, nil
	}
	plaintext, err := aesgcm.Open(e.key, blob, key)
	if err != nil {
		return false, fmt.Errorf("store: open envelope: %w", err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return false, fmt.Errorf("store: unmarshal value: %w", err)
	}
	return true, nil
}

// Delete removes key.
func (e *Envelope) Delete(ctx context.Context, key []byte) error {
	return e.kv.Delete(ctx, key)
}

// KV returns the underlying store, for callers that need transactional
// read-then-write atomicity (e.g. single-use nullifier enforcement) beyond
// what Put/Get alone provide.
func (e *Envelope) KV() *kv.Store {
	return e.kv
}

// Seal encrypts value the same way Put does, without writing it, for
// callers composing their own kv.Transaction.
func (e *Envelope) Seal(key []byte, value interface{}) ([]byte, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("store: marshal value: %w", err)
	}
	return aesgcm.Seal(e.key, plaintext, key)
}

// Open decrypts a blob produced by Seal/Put into out, without reading it
// from the store, for callers composing their own kv.Transaction.
func (e *Envelope) Open(key, blob []byte, out interface{}) error {
	plaintext, err := aesgcm.Open(e.key, blob, key)
	if err != nil {
		return fmt.Errorf("store: open envelope: %w", err)
	}
	return json.Unmarshal(plaintext, out)
}

// Exists reports whether key is present, without decrypting it.
func (e *Envelope) Exists(ctx context.Context, key []byte) (bool, error) {
	return e.kv.Exists(ctx, key)
}

// PrefixScan decrypts and unmarshals every value whose key starts with
// prefix into a new instance produced by newOut, invoking visit for each.
// visit returning an error stops the scan and is returned to the caller.
func (e *Envelope) PrefixScan(ctx context.Context, prefix []byte, newOut func() interface{}, visit func(key string, out interface{}) error) error {
	raw, err := e.kv.PrefixScan(ctx, prefix)
	if err != nil {
		return fmt.Errorf("store: prefix scan: %w", err)
	}
	for key, blob := range raw {
		plaintext, err := aesgcm.Open(e.key, blob, []byte(key))
		if err != nil {
			return fmt.Errorf("store: open envelope for key %q: %w", key, err)
		}
		out := newOut()
		if err := json.Unmarshal(plaintext, out); err != nil {
			return fmt.Errorf("store: unmarshal value for key %q: %w", key, err)
		}
		if err := visit(key, out); err != nil {
			return err
		}
	}
	return nil
}
