package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/zeroidhq/zeroid-core/internal/api/http/types"
)

// version is stamped at build time via -ldflags; defaults to "dev" for
// local builds.
var version = "dev"

// HealthHandler serves the single unauthenticated liveness endpoint on the
// public listener.
type HealthHandler struct{}

// NewHealthHandler builds the health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// RegisterRoutes mounts GET /health.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.GetHealth)
}

// GetHealth implements spec.md §6's GET /health.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, apitypes.HealthResponse{
		Status:    "ok",
		Service:   "zeroid",
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
