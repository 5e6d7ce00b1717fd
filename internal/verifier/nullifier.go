package verifier

import (
	"context"
	"errors"

	"github.com/zeroidhq/zeroid-core/internal/metrics"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ErrNullifierReplay is returned when a proof's nullifier has already been
// consumed by a prior successful verification.
var ErrNullifierReplay = errors.New("verifier: nullifier already consumed")

// registerNullifier records nullifier as consumed, translating the store
// layer's sentinel into this package's own. fingerprint is stored in the
// entry's CredentialID field as a traceability reference back to the proof
// that consumed it — proof verification has no credential ID of its own.
func registerNullifier(ctx context.Context, nullifiers *store.NullifierStore, fingerprint, nullifier, appID string, nowMillis int64) error {
	err := nullifiers.Register(ctx, types.NullifierEntry{
		Nullifier:    nullifier,
		CredentialID: fingerprint,
		AppID:        appID,
		UsedAt:       nowMillis,
	})
	if errors.Is(err, store.ErrNullifierAlreadyUsed) {
		metrics.NullifierRegistrationsTotal.WithLabelValues("replay").Inc()
		return ErrNullifierReplay
	}
	if err == nil {
		metrics.NullifierRegistrationsTotal.WithLabelValues("registered").Inc()
	}
	return err
}
