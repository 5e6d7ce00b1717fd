package store

import (
	"context"
	"time"

	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ProofCacheStore is the L2 (encrypted, persistent) tier of the proof
// verification cache, keyed by proof fingerprint.
type ProofCacheStore struct {
	env *Envelope
}

// NewProofCacheStore wraps env for proof cache storage.
func NewProofCacheStore(env *Envelope) *ProofCacheStore {
	return &ProofCacheStore{env: env}
}

func proofCacheKey(fingerprint string) []byte {
	return []byte("proofcache:" + fingerprint)
}

// Put persists entry under its fingerprint, expiring it after ttl.
func (s *ProofCacheStore) Put(ctx context.Context, entry types.ProofCacheEntry, ttl time.Duration) error {
	return s.env.PutWithTTL(ctx, proofCacheKey(entry.ProofFingerprint), entry, ttl)
}

// Get returns the cached entry for fingerprint, or (nil, nil) if absent.
func (s *ProofCacheStore) Get(ctx context.Context, fingerprint string) (*types.ProofCacheEntry, error) {
	var entry types.ProofCacheEntry
	found, err := s.env.Get(ctx, proofCacheKey(fingerprint), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}
