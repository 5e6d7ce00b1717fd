package store

import (
	"context"
	"fmt"

	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ErrNullifierAlreadyUsed is returned by Register when the nullifier has
// already been consumed by a prior verification.
var ErrNullifierAlreadyUsed = fmt.Errorf("store: nullifier already used")

// NullifierStore enforces single-use consumption of proof nullifiers. Every
// Register call runs inside a single Badger transaction so the
// check-then-write is atomic even under concurrent verification requests
// for the same nullifier.
type NullifierStore struct {
	env *Envelope
}

// NewNullifierStore wraps env for nullifier storage.
func NewNullifierStore(env *Envelope) *NullifierStore {
	return &NullifierStore{env: env}
}

func nullifierKey(nullifier string) []byte {
	return []byte("nullifier:" + nullifier)
}

// Register atomically checks whether entry.Nullifier has been used before
// and, if not, records it. It returns ErrNullifierAlreadyUsed if the
// nullifier was already consumed.
func (s *NullifierStore) Register(ctx context.Context, entry types.NullifierEntry) error {
	key := nullifierKey(entry.Nullifier)
	return s.env.KV().RunInTransaction(ctx, func(tx *kv.Transaction) error {
		existing, err := tx.Get(key)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrNullifierAlreadyUsed
		}
		blob, err := s.env.Seal(key, entry)
		if err != nil {
			return err
		}
		return tx.Set(key, blob)
	})
}

// Get returns the entry for nullifier, or (nil, nil) if it has not been
// consumed.
func (s *NullifierStore) Get(ctx context.Context, nullifier string) (*types.NullifierEntry, error) {
	var entry types.NullifierEntry
	found, err := s.env.Get(ctx, nullifierKey(nullifier), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// IsUsed reports whether nullifier has already been consumed.
func (s *NullifierStore) IsUsed(ctx context.Context, nullifier string) (bool, error) {
	return s.env.Exists(ctx, nullifierKey(nullifier))
}
