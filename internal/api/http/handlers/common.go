// Package handlers implements the ZeroID public HTTP API's request
// handlers, one file per resource.
package handlers

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
	"github.com/zeroidhq/zeroid-core/internal/api/http/middleware"
	apitypes "github.com/zeroidhq/zeroid-core/internal/api/http/types"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

var (
	dateOfBirthPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	boundAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

var validDocumentTypes = map[string]struct{}{
	types.DocumentTypePassport:       {},
	types.DocumentTypeDriversLicense: {},
	types.DocumentTypeNationalID:     {},
}

func isValidDocumentType(v string) bool {
	_, ok := validDocumentTypes[v]
	return ok
}

// writeError renders err as the standard error envelope and aborts the
// handler chain.
func writeError(c *gin.Context, err *apperror.Error) {
	middleware.WriteError(c, err)
}

// writeSuccess renders data as the standard success envelope with the
// given HTTP status.
func writeSuccess(c *gin.Context, status int, data interface{}) {
	resp := apitypes.NewSuccessResponse(data).
		WithRequestID(middleware.GetRequestID(c)).
		WithTimestamp(time.Now().UTC().Format(time.RFC3339))
	c.JSON(status, resp)
}
