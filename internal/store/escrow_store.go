package store

import (
	"context"
	"fmt"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// EscrowStore persists EscrowEntry records keyed by escrow ID. Every
// entry's EncryptedBlob is already regulator-key-encrypted by the caller;
// the envelope applies a second, store-key layer over the entire entry, so
// reading escrow from disk alone (without both the store master key and the
// relevant regulator key) reveals nothing.
type EscrowStore struct {
	env *Envelope
}

// NewEscrowStore wraps env for escrow storage.
func NewEscrowStore(env *Envelope) *EscrowStore {
	return &EscrowStore{env: env}
}

func escrowKey(escrowID string) []byte {
	return []byte("escrow:" + escrowID)
}

// Put persists entry under its ID.
func (s *EscrowStore) Put(ctx context.Context, entry types.EscrowEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("store: escrow: empty id")
	}
	return s.env.Put(ctx, escrowKey(entry.ID), entry)
}

// Get returns the escrow entry for escrowID, or (nil, nil) if absent.
func (s *EscrowStore) Get(ctx context.Context, escrowID string) (*types.EscrowEntry, error) {
	var entry types.EscrowEntry
	found, err := s.env.Get(ctx, escrowKey(escrowID), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// Invalidate shreds the entry: it replaces EncryptedBlob with an empty
// value, sets IntegrityHash to "INVALIDATED" and marks Invalidated, so the
// stored entry no longer carries the regulator-encrypted PII. No key is
// discarded and no replacement ciphertext is written.
func (s *EscrowStore) Invalidate(ctx context.Context, escrowID string) error {
	entry, err := s.Get(ctx, escrowID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("store: escrow: no entry for id %q", escrowID)
	}
	entry.EncryptedBlob = types.EncryptedBlob{}
	entry.Invalidated = true
	entry.IntegrityHash = "INVALIDATED"
	return s.Put(ctx, *entry)
}

// ListExpired returns every non-invalidated entry whose ExpiresAt is at or
// before nowMillis, for the retention-driven purge job.
func (s *EscrowStore) ListExpired(ctx context.Context, nowMillis int64) ([]types.EscrowEntry, error) {
	var expired []types.EscrowEntry
	err := s.env.PrefixScan(ctx, []byte("escrow:"), func() interface{} {
		return &types.EscrowEntry{}
	}, func(_ string, out interface{}) error {
		entry := out.(*types.EscrowEntry)
		if !entry.Invalidated && entry.ExpiresAt <= nowMillis {
			expired = append(expired, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
