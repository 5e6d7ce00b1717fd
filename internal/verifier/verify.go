package verifier

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/metrics"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// maxAggregateProofs and maxAggregateConcurrency match spec.md §4.6's
// aggregation bound and the worker-pool sizing §5 calls for so CPU-bound
// Groth16 verification never head-of-line-blocks the HTTP reactor.
const (
	maxAggregateProofs      = 100
	maxAggregateConcurrency = 8
)

// proofVerifier is the subset of Groth16Verifier the pipeline depends on,
// so tests can substitute a fake without a real verification key.
type proofVerifier interface {
	Verify(proof types.Proof, publicSignals []string) (valid bool, nullifier, appID string, err error)
}

// Service orchestrates spec.md §4.6's verify pipeline: fingerprint, L1/L2
// cache lookup, Groth16 verify on miss, nullifier registration, and
// write-through caching.
type Service struct {
	groth16    proofVerifier
	cache      *Cache
	nullifiers *store.NullifierStore
	audit      *store.AuditStore
	clock      clock.Clock
}

// NewService constructs a verifier Service.
func NewService(groth16 proofVerifier, cache *Cache, nullifiers *store.NullifierStore, audit *store.AuditStore, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{groth16: groth16, cache: cache, nullifiers: nullifiers, audit: audit, clock: clk}
}

// Result is the outcome of VerifyProof.
type Result struct {
	Valid     bool
	Nullifier string
	Cached    bool
}

// VerifyProof runs spec.md §4.6's pipeline. It returns ErrNullifierReplay
// when a valid proof's nullifier was already consumed by a prior verify.
func (s *Service) VerifyProof(ctx context.Context, proof types.Proof, publicSignals []string) (*Result, error) {
	fingerprint, err := Fingerprint(proof, publicSignals)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.cache.Get(ctx, fingerprint); err != nil {
		return nil, fmt.Errorf("verifier: cache lookup: %w", err)
	} else if ok {
		return &Result{Valid: cached.Valid, Nullifier: cached.Nullifier, Cached: true}, nil
	}

	valid, nullifier, appID, err := s.groth16.Verify(proof, publicSignals)
	if err != nil {
		metrics.ProofVerificationTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.clock.Now()
	if valid {
		// Nullifier registration happens before caching (per spec.md §9's
		// open-question resolution: the dual write is not atomic, so the
		// nullifier store is the source of truth if a crash lands between
		// the two writes).
		if err := registerNullifier(ctx, s.nullifiers, fingerprint, nullifier, appID, now.UnixMilli()); err != nil {
			if errors.Is(err, ErrNullifierReplay) {
				_, _ = s.audit.Append(ctx, types.AuditLogEntry{
					Action:     types.AuditProofVerify,
					ResourceID: fingerprint,
					Timestamp:  now.UnixMilli(),
					Metadata:   map[string]string{"result": "replay", "nullifier": nullifier},
				})
				metrics.ProofVerificationTotal.WithLabelValues("replay").Inc()
				return &Result{Valid: false, Nullifier: nullifier, Cached: false}, ErrNullifierReplay
			}
			return nil, err
		}
		_, _ = s.audit.Append(ctx, types.AuditLogEntry{
			Action:     types.AuditNullifierRegister,
			ResourceID: nullifier,
			Timestamp:  now.UnixMilli(),
			Metadata:   map[string]string{"appId": appID},
		})
	}

	entry := types.ProofCacheEntry{ProofFingerprint: fingerprint, Valid: valid, Nullifier: nullifier, VerifiedAt: now.UnixMilli()}
	if err := s.cache.Set(ctx, entry); err != nil {
		return nil, fmt.Errorf("verifier: cache set: %w", err)
	}

	if valid {
		metrics.ProofVerificationTotal.WithLabelValues("valid").Inc()
	} else {
		metrics.ProofVerificationTotal.WithLabelValues("invalid").Inc()
	}

	_, _ = s.audit.Append(ctx, types.AuditLogEntry{
		Action:     types.AuditProofVerify,
		ResourceID: fingerprint,
		Timestamp:  now.UnixMilli(),
		Metadata:   map[string]string{"result": "verified", "valid": fmt.Sprintf("%t", valid)},
	})

	return &Result{Valid: valid, Nullifier: nullifier, Cached: false}, nil
}

// IndexResult is one entry in AggregateResult.Results.
type IndexResult struct {
	Index int
	Valid bool
	Error string
}

// AggregateResult is the outcome of Aggregate.
type AggregateResult struct {
	AllValid   bool
	Total      int
	ValidCount int
	Results    []IndexResult
}

// ErrTooManyProofs is returned when entries is empty or exceeds
// maxAggregateProofs.
var ErrTooManyProofs = fmt.Errorf("verifier: aggregate accepts at most %d proofs", maxAggregateProofs)

// Aggregate verifies every entry concurrently, bounded to
// maxAggregateConcurrency in flight. A single entry's failure (verification
// error or replay) is isolated into its own IndexResult and never aborts
// the others.
func (s *Service) Aggregate(ctx context.Context, entries []types.ProofEntry) (*AggregateResult, error) {
	if len(entries) == 0 || len(entries) > maxAggregateProofs {
		return nil, ErrTooManyProofs
	}

	results := make([]IndexResult, len(entries))
	sem := semaphore.NewWeighted(maxAggregateConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = IndexResult{Index: i, Valid: false, Error: err.Error()}
				return nil
			}
			defer sem.Release(1)

			result, err := s.VerifyProof(gctx, entry.Proof, entry.PublicSignals)
			switch {
			case err != nil && !errors.Is(err, ErrNullifierReplay):
				results[i] = IndexResult{Index: i, Valid: false, Error: err.Error()}
			case errors.Is(err, ErrNullifierReplay):
				results[i] = IndexResult{Index: i, Valid: false, Error: ErrNullifierReplay.Error()}
			default:
				results[i] = IndexResult{Index: i, Valid: result.Valid}
			}
			return nil
		})
	}
	// g.Wait's error is always nil here: each goroutine records its own
	// failure into results instead of propagating, so no proof's error can
	// poison any other's verification.
	_ = g.Wait()

	validCount := 0
	for _, r := range results {
		if r.Valid {
			validCount++
		}
	}

	return &AggregateResult{
		AllValid:   validCount == len(entries),
		Total:      len(entries),
		ValidCount: validCount,
		Results:    results,
	}, nil
}
