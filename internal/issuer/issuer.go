// Package issuer implements the credential issuance pipeline: sanctions
// screening, KYC verification, Poseidon commitment, and EdDSA signing.
package issuer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/crypto/eddsa"
	"github.com/zeroidhq/zeroid-core/internal/crypto/keys"
	"github.com/zeroidhq/zeroid-core/internal/crypto/poseidon"
	"github.com/zeroidhq/zeroid-core/internal/escrow"
	"github.com/zeroidhq/zeroid-core/internal/sanctions"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/pkg/fieldutil"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ErrSanctioned is returned when the submission's country code is on the
// sanctions list.
var ErrSanctioned = errors.New("issuer: country is sanctioned")

// ErrAgeOutOfRange is returned when the computed age does not fit the
// circuit's 8-bit age constraint.
var ErrAgeOutOfRange = errors.New("issuer: age does not fit 8-bit circuit constraint")

// KycFailedError is returned when the KYC provider rejects a submission. It
// carries the confidence score so callers can surface it in the 422
// response body.
type KycFailedError struct {
	Confidence float64
}

func (e *KycFailedError) Error() string {
	return fmt.Sprintf("issuer: kyc verification failed (confidence=%.2f)", e.Confidence)
}

// retentionJurisdiction is the escrow jurisdiction used for every issuance,
// per spec.md §4.5 step 5 ("jurisdiction=\"US\"").
const retentionJurisdiction = "US"

// defaultRegulatorKeyID is the escrow regulator key used for every
// issuance, per spec.md §4.5 step 5 ("regulatorKey=\"default\"").
const defaultRegulatorKeyID = "default"

// Service issues signed credentials.
type Service struct {
	privKey     *eddsa.PrivateKey
	pubKey      *eddsa.PublicKey
	sanctions   *sanctions.Service
	escrow      *escrow.Service
	credentials *store.CredentialStore
	audit       *store.AuditStore
	kyc         KycProvider
	clock       clock.Clock
}

// NewService constructs an issuer Service.
func NewService(
	privKey *eddsa.PrivateKey,
	sanctionsSvc *sanctions.Service,
	escrowSvc *escrow.Service,
	credentials *store.CredentialStore,
	audit *store.AuditStore,
	kyc KycProvider,
	clk clock.Clock,
) *Service {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		privKey:     privKey,
		pubKey:      privKey.Public(),
		sanctions:   sanctionsSvc,
		escrow:      escrowSvc,
		credentials: credentials,
		audit:       audit,
		kyc:         kyc,
		clock:       clk,
	}
}

// IssueRequest is the validated input to IssueCredential.
type IssueRequest struct {
	Submission   types.KycSubmission
	BoundAddress string
	Level        *int // nil means "server-determined"
}

// IssueResult bundles the issued credential with the escrow ID that holds
// its raw PII.
type IssueResult struct {
	Credential types.SignedCredential
	EscrowID   string
}

// IssueCredential runs spec.md §4.5's pipeline: sanctions screen, KYC
// verify, Poseidon commitment + EdDSA signature, escrow the raw PII, and
// persist the credential.
func (s *Service) IssueCredential(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if s.sanctions.IsSanctioned(req.Submission.CountryCode) {
		return nil, ErrSanctioned
	}

	kycResult, err := s.kyc.Verify(ctx, req.Submission)
	if err != nil {
		return nil, fmt.Errorf("issuer: kyc provider: %w", err)
	}
	if !kycResult.Passed {
		return nil, &KycFailedError{Confidence: kycResult.Confidence}
	}

	age, err := computeAge(req.Submission.DateOfBirth, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if age < 0 || age > 255 {
		return nil, ErrAgeOutOfRange
	}

	userSecretBytes := make([]byte, 31)
	if _, err := rand.Read(userSecretBytes); err != nil {
		return nil, fmt.Errorf("issuer: generate user secret: %w", err)
	}
	defer keys.Wipe(userSecretBytes)
	userSecret := fieldutil.FromBytes(userSecretBytes)

	credentialHash, err := poseidon.Hash(big.NewInt(int64(age)), big.NewInt(int64(req.Submission.CountryCode)), userSecret)
	if err != nil {
		return nil, fmt.Errorf("issuer: compute credential hash: %w", err)
	}

	signature, err := s.privKey.SignPoseidon(credentialHash)
	if err != nil {
		return nil, fmt.Errorf("issuer: sign credential: %w", err)
	}

	level := s.determineLevel(req.Level, age, req.Submission.CountryCode)

	now := s.clock.Now()
	credentialID := uuid.NewString()
	escrowID := uuid.NewString()

	if err := s.escrow.PutEscrow(ctx, escrowID, types.EscrowPII{
		FullName:       req.Submission.FullName,
		DateOfBirth:    req.Submission.DateOfBirth,
		CountryCode:    req.Submission.CountryCode,
		DocumentType:   req.Submission.DocumentType,
		DocumentNumber: req.Submission.DocumentNumber,
		ProviderRef:    kycResult.ProviderRef,
		VerifiedAt:     kycResult.VerifiedAt,
	}, defaultRegulatorKeyID, credentialID, retentionJurisdiction); err != nil {
		return nil, fmt.Errorf("issuer: escrow pii: %w", err)
	}

	r8x, r8y := signature.R8()
	credential := types.SignedCredential{
		ID:             credentialID,
		CredentialHash: fieldutil.ToDecimal(credentialHash),
		UserSecret:     fieldutil.ToDecimal(userSecret),
		Signature: types.Signature{
			R8: types.Point{X: fieldutil.ToDecimal(r8x), Y: fieldutil.ToDecimal(r8y)},
			S:  fieldutil.ToDecimal(signature.S()),
		},
		IssuerPubKey: types.Point{X: fieldutil.ToDecimal(s.pubKey.X()), Y: fieldutil.ToDecimal(s.pubKey.Y())},
		BoundAddress: req.BoundAddress,
		Level:        level,
		IssuedAt:     now.UnixMilli(),
		ExpiresAt:    now.AddDate(1, 0, 0).UnixMilli(),
	}

	// userSecret crosses the TLS boundary exactly once, in this response; the
	// persisted copy omits it so it is never retained server-side.
	persisted := credential
	persisted.UserSecret = ""
	if err := s.credentials.Put(ctx, persisted); err != nil {
		return nil, fmt.Errorf("issuer: persist credential: %w", err)
	}

	_, _ = s.audit.Append(ctx, types.AuditLogEntry{
		Action:     types.AuditCredentialIssue,
		ResourceID: credentialID,
		Timestamp:  now.UnixMilli(),
		Metadata:   map[string]string{"escrowId": escrowID, "level": fmt.Sprintf("%d", level)},
	})

	return &IssueResult{Credential: credential, EscrowID: escrowID}, nil
}

// determineLevel applies spec.md §4.5 step 4e: caller-specified wins,
// otherwise 3 when both a country code and a non-zero age are present (the
// usual case, since credentialHash always binds both), 1 when only a
// non-zero age is present, 0 otherwise (including a computed age of 0).
func (s *Service) determineLevel(requested *int, age, countryCode int) int {
	if requested != nil {
		return *requested
	}
	hasAge := age > 0
	hasCountry := countryCode > 0
	switch {
	case hasCountry && hasAge:
		return 3
	case hasAge:
		return 1
	default:
		return 0
	}
}

// computeAge returns the whole number of years between dateOfBirth
// (YYYY-MM-DD) and now.
func computeAge(dateOfBirth string, now time.Time) (int, error) {
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return 0, fmt.Errorf("issuer: invalid date of birth %q: %w", dateOfBirth, err)
	}
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years, nil
}
