// Package verification tracks the server-side state machine behind
// POST /api/v1/verify and GET /api/v1/verify/:id (spec.md §4.7), persisted
// through store.VerificationStore. Records are created in the pending state;
// this package does not move them to later states.
package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ErrNotFound is returned when the requested record id doesn't exist.
var ErrNotFound = errors.New("verification: record not found")

// ErrInvalidRequirement is returned when a requirement's type isn't one of
// the accepted enum values.
var ErrInvalidRequirement = errors.New("verification: invalid requirement type")

var validRequirementTypes = map[string]struct{}{
	types.RequirementAgeGTE:         {},
	types.RequirementCountryNot:     {},
	types.RequirementSanctionsClear: {},
	types.RequirementSybilUnique:    {},
}

// Service creates and transitions VerificationRecords.
type Service struct {
	store *store.VerificationStore
	clock clock.Clock
}

// NewService constructs a verification Service.
func NewService(verificationStore *store.VerificationStore, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{store: verificationStore, clock: clk}
}

// Create validates requirements and persists a new record in the pending
// state.
func (s *Service) Create(ctx context.Context, userID string, requirements []types.VerificationRequirement) (*types.VerificationRecord, error) {
	for _, r := range requirements {
		if _, ok := validRequirementTypes[r.Type]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRequirement, r.Type)
		}
	}

	now := s.clock.Now().UnixMilli()
	record := types.VerificationRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Requirements: requirements,
		Status:       types.VerificationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("verification: persist record: %w", err)
	}
	return &record, nil
}

// Get loads a record by id, returning ErrNotFound if no record exists.
func (s *Service) Get(ctx context.Context, id string) (*types.VerificationRecord, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("verification: load record: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}
