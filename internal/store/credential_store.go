package store

import (
	"context"
	"fmt"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// CredentialStore persists SignedCredential records keyed by credential ID.
type CredentialStore struct {
	env *Envelope
}

// NewCredentialStore wraps env for credential storage.
func NewCredentialStore(env *Envelope) *CredentialStore {
	return &CredentialStore{env: env}
}

func credentialKey(id string) []byte {
	return []byte("credential:" + id)
}

// Put persists cred under its ID, overwriting any prior value.
func (s *CredentialStore) Put(ctx context.Context, cred types.SignedCredential) error {
	if cred.ID == "" {
		return fmt.Errorf("store: credential: empty id")
	}
	return s.env.Put(ctx, credentialKey(cred.ID), cred)
}

// Get returns the credential stored under id, or (nil, nil) if absent.
func (s *CredentialStore) Get(ctx context.Context, id string) (*types.SignedCredential, error) {
	var cred types.SignedCredential
	found, err := s.env.Get(ctx, credentialKey(id), &cred)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cred, nil
}

// Delete removes the credential stored under id.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	return s.env.Delete(ctx, credentialKey(id))
}
