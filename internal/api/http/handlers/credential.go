package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
	"github.com/zeroidhq/zeroid-core/internal/issuer"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// CredentialHandler implements POST /api/v1/credential.
type CredentialHandler struct {
	issuer *issuer.Service
}

// NewCredentialHandler builds the credential handler.
func NewCredentialHandler(issuerSvc *issuer.Service) *CredentialHandler {
	return &CredentialHandler{issuer: issuerSvc}
}

// RegisterRoutes mounts this handler's routes under r.
func (h *CredentialHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/credential", h.IssueCredential)
}

type issueCredentialRequest struct {
	FullName       string `json:"fullName"`
	DateOfBirth    string `json:"dateOfBirth"`
	CountryCode    int    `json:"countryCode"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	BoundAddress   string `json:"boundAddress"`
	Level          *int   `json:"level"`
}

func (req issueCredentialRequest) validate() *apperror.Error {
	if req.FullName == "" {
		return apperror.Validation("fullName is required", "fullName")
	}
	if !dateOfBirthPattern.MatchString(req.DateOfBirth) {
		return apperror.Validation("dateOfBirth must match YYYY-MM-DD", "dateOfBirth")
	}
	if req.CountryCode < 1 || req.CountryCode > 999 {
		return apperror.Validation("countryCode must be between 1 and 999", "countryCode")
	}
	if !isValidDocumentType(req.DocumentType) {
		return apperror.Validation("documentType must be one of passport, drivers_license, national_id", "documentType")
	}
	if req.DocumentNumber == "" {
		return apperror.Validation("documentNumber is required", "documentNumber")
	}
	if req.BoundAddress != "" && !boundAddressPattern.MatchString(req.BoundAddress) {
		return apperror.Validation("boundAddress must be a 0x-prefixed 20-byte hex address", "boundAddress")
	}
	if req.Level != nil && (*req.Level < 0 || *req.Level > 4) {
		return apperror.Validation("level must be between 0 and 4", "level")
	}
	return nil
}

// IssueCredential implements POST /api/v1/credential.
func (h *CredentialHandler) IssueCredential(c *gin.Context) {
	var req issueCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation("malformed request body", ""))
		return
	}
	if verr := req.validate(); verr != nil {
		writeError(c, verr)
		return
	}

	result, err := h.issuer.IssueCredential(c.Request.Context(), issuer.IssueRequest{
		Submission: types.KycSubmission{
			FullName:       req.FullName,
			DateOfBirth:    req.DateOfBirth,
			CountryCode:    req.CountryCode,
			DocumentType:   req.DocumentType,
			DocumentNumber: req.DocumentNumber,
		},
		BoundAddress: req.BoundAddress,
		Level:        req.Level,
	})
	if err != nil {
		writeIssueError(c, err, req.CountryCode)
		return
	}

	writeSuccess(c, http.StatusCreated, gin.H{
		"credential": result.Credential,
		"escrowId":   result.EscrowID,
	})
}

func writeIssueError(c *gin.Context, err error, countryCode int) {
	if errors.Is(err, issuer.ErrSanctioned) {
		writeError(c, apperror.Sanctioned(countryCode))
		return
	}
	var kycErr *issuer.KycFailedError
	if errors.As(err, &kycErr) {
		writeError(c, apperror.KycFailed(kycErr.Confidence))
		return
	}
	if errors.Is(err, issuer.ErrAgeOutOfRange) {
		writeError(c, apperror.Validation(err.Error(), "dateOfBirth"))
		return
	}
	writeError(c, apperror.Internal(err))
}
