// Package admin implements the internal-only management HTTP surface:
// health/metrics for operators and a sanctions-list refresh trigger. It is
// never exposed on the same listener as the public API.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/sanctions"
)

// Server is the internal management HTTP server. It should be bound to a
// loopback or private interface only — it is not authenticated.
type Server struct {
	httpServer *http.Server
	logger     log.Logger
	startTime  time.Time
}

// NewServer builds the internal management server, listening on
// host:port (typically 127.0.0.1:<port>).
func NewServer(host, port string, logger log.Logger, sanctionsSvc *sanctions.Service, sanctionsListPath string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	startTime := time.Now()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startTime).String(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/debug/sanctions/refresh", func(c *gin.Context) {
		if err := sanctionsSvc.Refresh(sanctionsListPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "refreshed",
			"root":   sanctionsSvc.Root().String(),
		})
	})

	addr := fmt.Sprintf("%s:%s", host, port)
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second},
		logger:     logger,
		startTime:  startTime,
	}
}

// Start begins serving in the background.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("internal management listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
