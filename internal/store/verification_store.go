package store

import (
	"context"
	"fmt"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// VerificationStore persists VerificationRecord state machines keyed by
// verification ID, backing POST /api/v1/verify's async polling flow.
type VerificationStore struct {
	env *Envelope
}

// NewVerificationStore wraps env for verification-record storage.
func NewVerificationStore(env *Envelope) *VerificationStore {
	return &VerificationStore{env: env}
}

func verificationKey(id string) []byte {
	return []byte("verification:" + id)
}

// Put persists record under its ID, overwriting any prior state.
func (s *VerificationStore) Put(ctx context.Context, record types.VerificationRecord) error {
	if record.ID == "" {
		return fmt.Errorf("store: verification: empty id")
	}
	return s.env.Put(ctx, verificationKey(record.ID), record)
}

// Get returns the record stored under id, or (nil, nil) if absent.
func (s *VerificationStore) Get(ctx context.Context, id string) (*types.VerificationRecord, error) {
	var record types.VerificationRecord
	found, err := s.env.Get(ctx, verificationKey(id), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// Transition loads the record for id, applies mutate, and persists the
// result. mutate should set Status/FailureReason/CredentialID as
// appropriate. Transition does not touch UpdatedAt: this package does not
// read the clock, so mutate sets it when needed.
func (s *VerificationStore) Transition(ctx context.Context, id string, mutate func(*types.VerificationRecord) error) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("store: verification: no record for id %q", id)
	}
	if err := mutate(record); err != nil {
		return err
	}
	return s.Put(ctx, *record)
}
