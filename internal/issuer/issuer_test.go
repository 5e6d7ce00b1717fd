package issuer

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/crypto/eddsa"
	"github.com/zeroidhq/zeroid-core/internal/escrow"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/sanctions"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/internal/store/kv"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

func newTestIssuer(t *testing.T, at time.Time) *Service {
	t.Helper()
	kvStore, err := kv.Open(kv.Options{}, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kvStore.Close()) })

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)

	credEnv, err := store.NewEnvelope(kvStore, masterKey, "test/credential")
	require.NoError(t, err)
	escrowEnv, err := store.NewEnvelope(kvStore, masterKey, "test/escrow")
	require.NoError(t, err)

	credStore := store.NewCredentialStore(credEnv)
	escrowStore := store.NewEscrowStore(escrowEnv)
	auditStore := store.NewAuditStore(escrowEnv)

	regulatorKey := make([]byte, 32)
	_, err = rand.Read(regulatorKey)
	require.NoError(t, err)

	fixedClock := clock.FixedClock{At: at}
	escrowSvc := escrow.NewService(escrowStore, auditStore, map[string][]byte{"default": regulatorKey}, fixedClock)

	sanctionsSvc, err := sanctions.NewService("", sanctions.DefaultDepth)
	require.NoError(t, err)

	privKey, err := eddsa.GenerateKey()
	require.NoError(t, err)

	return NewService(privKey, sanctionsSvc, escrowSvc, credStore, auditStore, NewMockProvider(fixedClock), fixedClock)
}

func validSubmission() types.KycSubmission {
	return types.KycSubmission{
		FullName:       "Alice Ng",
		DateOfBirth:    "1990-01-15",
		CountryCode:    840,
		DocumentType:   types.DocumentTypePassport,
		DocumentNumber: "X123",
	}
}

func TestIssueCredentialHappyPath(t *testing.T) {
	now, err := time.Parse("2006-01-02", "2026-08-02")
	require.NoError(t, err)
	svc := newTestIssuer(t, now)

	result, err := svc.IssueCredential(context.Background(), IssueRequest{Submission: validSubmission()})
	require.NoError(t, err)
	require.Equal(t, 3, result.Credential.Level)
	require.NotEmpty(t, result.Credential.CredentialHash)
	require.NotEmpty(t, result.Credential.UserSecret)
	require.NotEmpty(t, result.EscrowID)

	stored, err := svc.credentials.Get(context.Background(), result.Credential.ID)
	require.NoError(t, err)
	require.Equal(t, result.Credential.CredentialHash, stored.CredentialHash)
	require.Empty(t, stored.UserSecret, "userSecret must not be retained beyond the issuance response")
}

func TestIssueCredentialRejectsSanctionedCountry(t *testing.T) {
	svc := newTestIssuer(t, time.Now())
	submission := validSubmission()
	submission.CountryCode = 408 // DPRK, in the default sanctions list

	_, err := svc.IssueCredential(context.Background(), IssueRequest{Submission: submission})
	require.ErrorIs(t, err, ErrSanctioned)
}

func TestIssueCredentialRejectsKycFailure(t *testing.T) {
	svc := newTestIssuer(t, time.Now())
	submission := validSubmission()
	submission.FullName = "REJECT ME"

	_, err := svc.IssueCredential(context.Background(), IssueRequest{Submission: submission})
	var kycErr *KycFailedError
	require.ErrorAs(t, err, &kycErr)
	require.InDelta(t, 0.15, kycErr.Confidence, 0.001)
}

func TestIssueCredentialRespectsCallerSpecifiedLevel(t *testing.T) {
	svc := newTestIssuer(t, time.Now())
	level := 2
	result, err := svc.IssueCredential(context.Background(), IssueRequest{Submission: validSubmission(), Level: &level})
	require.NoError(t, err)
	require.Equal(t, 2, result.Credential.Level)
}

func TestComputeAgeBoundary(t *testing.T) {
	now, err := time.Parse("2006-01-02", "2026-08-02")
	require.NoError(t, err)

	age, err := computeAge("2000-08-02", now)
	require.NoError(t, err)
	require.Equal(t, 26, age)

	age, err = computeAge("2000-08-03", now)
	require.NoError(t, err)
	require.Equal(t, 25, age)
}
