package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
	"github.com/zeroidhq/zeroid-core/internal/verifier"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// ProofHandler implements POST /api/v1/proof/verify and
// POST /api/v1/proof/aggregate.
type ProofHandler struct {
	verifier *verifier.Service
}

// NewProofHandler builds the proof handler.
func NewProofHandler(verifierSvc *verifier.Service) *ProofHandler {
	return &ProofHandler{verifier: verifierSvc}
}

// RegisterRoutes mounts this handler's routes under r.
func (h *ProofHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/proof/verify", h.VerifyProof)
	r.POST("/proof/aggregate", h.AggregateProofs)
}

type verifyProofRequest struct {
	Proof         types.Proof `json:"proof"`
	PublicSignals []string    `json:"publicSignals"`
}

func validatePublicSignals(signals []string) *apperror.Error {
	if len(signals) < 1 || len(signals) > 50 {
		return apperror.Validation("publicSignals must contain between 1 and 50 entries", "publicSignals")
	}
	return nil
}

// VerifyProof implements POST /api/v1/proof/verify.
func (h *ProofHandler) VerifyProof(c *gin.Context) {
	var req verifyProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation("malformed request body", ""))
		return
	}
	if verr := validatePublicSignals(req.PublicSignals); verr != nil {
		writeError(c, verr)
		return
	}

	result, err := h.verifier.VerifyProof(c.Request.Context(), req.Proof, req.PublicSignals)
	if err != nil {
		if errors.Is(err, verifier.ErrNullifierReplay) {
			writeError(c, apperror.NullifierReplay())
			return
		}
		if errors.Is(err, verifier.ErrNoVerificationKey) {
			writeError(c, apperror.Unavailable("verification key not loaded", err))
			return
		}
		writeError(c, apperror.Internal(err))
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{
		"valid":     result.Valid,
		"nullifier": result.Nullifier,
		"cached":    result.Cached,
	})
}

type aggregateProofsRequest struct {
	Proofs []types.ProofEntry `json:"proofs"`
}

// AggregateProofs implements POST /api/v1/proof/aggregate.
func (h *ProofHandler) AggregateProofs(c *gin.Context) {
	var req aggregateProofsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation("malformed request body", ""))
		return
	}
	for i, entry := range req.Proofs {
		if verr := validatePublicSignals(entry.PublicSignals); verr != nil {
			verr.Message = verr.Message + " (entry " + strconv.Itoa(i) + ")"
			writeError(c, verr)
			return
		}
	}

	result, err := h.verifier.Aggregate(c.Request.Context(), req.Proofs)
	if err != nil {
		if errors.Is(err, verifier.ErrTooManyProofs) {
			writeError(c, apperror.Validation(err.Error(), "proofs"))
			return
		}
		if errors.Is(err, verifier.ErrNoVerificationKey) {
			writeError(c, apperror.Unavailable("verification key not loaded", err))
			return
		}
		writeError(c, apperror.Internal(err))
		return
	}

	writeSuccess(c, http.StatusOK, result)
}
