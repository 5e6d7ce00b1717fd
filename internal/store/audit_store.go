package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// AuditStore is an append-only, monotonically-sequenced log of
// AuditLogEntry records. Sequence numbers are assigned atomically so
// concurrent writers never collide or reorder within the log.
type AuditStore struct {
	env *Envelope
}

// NewAuditStore wraps env for audit logging.
func NewAuditStore(env *Envelope) *AuditStore {
	return &AuditStore{env: env}
}

const auditSequenceKey = "audit:_sequence"

func auditKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("audit:entry:%020d", seq))
}

// Append assigns the next sequence number to entry and persists it. The
// caller-supplied entry.Sequence is ignored and overwritten.
func (s *AuditStore) Append(ctx context.Context, entry types.AuditLogEntry) (uint64, error) {
	var seq uint64
	err := s.env.KV().RunInTransaction(ctx, func(tx *kv.Transaction) error {
		raw, err := tx.Get([]byte(auditSequenceKey))
		if err != nil {
			return err
		}
		if raw != nil {
			current, err := strconv.ParseUint(string(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("store: audit: corrupt sequence counter: %w", err)
			}
			seq = current + 1
		} else {
			seq = 1
		}
		entry.Sequence = seq

		blob, err := s.env.Seal(auditKey(seq), entry)
		if err != nil {
			return err
		}
		if err := tx.Set(auditKey(seq), blob); err != nil {
			return err
		}
		return tx.Set([]byte(auditSequenceKey), []byte(strconv.FormatUint(seq, 10)))
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ListSince returns every entry with Sequence > afterSeq, in ascending
// sequence order, capped at limit entries (0 means unbounded).
func (s *AuditStore) ListSince(ctx context.Context, afterSeq uint64, limit int) ([]types.AuditLogEntry, error) {
	var entries []types.AuditLogEntry
	err := s.env.PrefixScan(ctx, []byte("audit:entry:"), func() interface{} {
		return &types.AuditLogEntry{}
	}, func(_ string, out interface{}) error {
		e := out.(*types.AuditLogEntry)
		if e.Sequence > afterSeq {
			entries = append(entries, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
