package issuer

import (
	"context"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// KycProvider runs a submission through identity verification, returning
// whether it passed and a confidence score.
type KycProvider interface {
	Verify(ctx context.Context, submission types.KycSubmission) (types.KycResult, error)
}

// MockProvider is a deterministic stand-in KYC provider: it rejects the
// sentinel name "REJECT ME" (used by the end-to-end reject scenario) and
// passes everything else with high confidence. Real deployments swap this
// for an adapter over an actual KYC vendor API.
type MockProvider struct {
	clock clock.Clock
}

// NewMockProvider constructs a MockProvider.
func NewMockProvider(clk clock.Clock) *MockProvider {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &MockProvider{clock: clk}
}

func (p *MockProvider) Verify(_ context.Context, submission types.KycSubmission) (types.KycResult, error) {
	result := types.KycResult{
		KycSubmission: submission,
		ProviderRef:   "mock-provider",
		VerifiedAt:    p.clock.Now().UnixMilli(),
	}
	if submission.FullName == "REJECT ME" {
		result.Passed = false
		result.Confidence = 0.15
		return result, nil
	}
	result.Passed = true
	result.Confidence = 0.95
	return result, nil
}
