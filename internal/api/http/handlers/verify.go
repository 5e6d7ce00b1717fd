package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
	"github.com/zeroidhq/zeroid-core/internal/verification"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// VerifyHandler implements POST /api/v1/verify and GET /api/v1/verify/:id.
type VerifyHandler struct {
	verification *verification.Service
}

// NewVerifyHandler builds the verify handler.
func NewVerifyHandler(verificationSvc *verification.Service) *VerifyHandler {
	return &VerifyHandler{verification: verificationSvc}
}

// RegisterRoutes mounts this handler's routes under r.
func (h *VerifyHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/verify", h.CreateVerification)
	r.GET("/verify/:id", h.GetVerification)
}

type createVerificationRequest struct {
	UserID       string                          `json:"userId"`
	Requirements []types.VerificationRequirement `json:"requirements"`
}

// CreateVerification implements POST /api/v1/verify.
func (h *VerifyHandler) CreateVerification(c *gin.Context) {
	var req createVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation("malformed request body", ""))
		return
	}

	if req.UserID == "" {
		writeError(c, apperror.Validation("userId is required", "userId"))
		return
	}
	if len(req.Requirements) < 1 || len(req.Requirements) > 10 {
		writeError(c, apperror.Validation("requirements must contain between 1 and 10 entries", "requirements"))
		return
	}

	record, err := h.verification.Create(c.Request.Context(), req.UserID, req.Requirements)
	if err != nil {
		if errors.Is(err, verification.ErrInvalidRequirement) {
			writeError(c, apperror.Validation(err.Error(), "requirements[].type"))
			return
		}
		writeError(c, apperror.Internal(err))
		return
	}

	writeSuccess(c, http.StatusCreated, gin.H{"id": record.ID, "status": record.Status})
}

// GetVerification implements GET /api/v1/verify/:id.
func (h *VerifyHandler) GetVerification(c *gin.Context) {
	record, err := h.verification.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			writeError(c, apperror.NotFound("verification record"))
			return
		}
		writeError(c, apperror.Internal(err))
		return
	}

	writeSuccess(c, http.StatusOK, record)
}
