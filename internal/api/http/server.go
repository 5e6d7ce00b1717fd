// Package http bootstraps the public gin.Engine, registers the ambient
// middleware stack, and mounts every resource handler under /api/v1.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeroidhq/zeroid-core/internal/api/http/handlers"
	"github.com/zeroidhq/zeroid-core/internal/api/http/middleware"
	"github.com/zeroidhq/zeroid-core/internal/issuer"
	"github.com/zeroidhq/zeroid-core/internal/log"
	"github.com/zeroidhq/zeroid-core/internal/verification"
	"github.com/zeroidhq/zeroid-core/internal/verifier"
)

// Config controls the public server's listen address and middleware
// tuning.
type Config struct {
	Host         string
	Port         string
	APIKeys      []string
	CORSOrigin   string
	RateLimit    int
	RateWindow   time.Duration
	RedisLimiter middleware.Limiter // nil selects the in-process fallback
}

// Server is the public-facing HTTP API: gin engine plus the standard
// net/http server wrapping it.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     log.Logger
}

// NewServer builds and wires the public API server. It does not start
// listening until Start is called.
func NewServer(
	cfg Config,
	logger log.Logger,
	issuerSvc *issuer.Service,
	verifierSvc *verifier.Service,
	verificationSvc *verification.Service,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	zl := log.ZapLogger(logger)
	if zl == nil {
		zl = zap.NewNop()
	}

	requestID := middleware.NewRequestID()
	requestLogger := middleware.NewLogger(logger)
	requestMetrics := middleware.NewMetrics(zl)
	errorHandler := middleware.ErrorHandler(zl)
	auth := middleware.NewAuth(cfg.APIKeys)

	limiter := cfg.RedisLimiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
	}
	rateLimit := middleware.NewRateLimit(zl, limiter, cfg.RateLimit)

	router.Use(requestID.Middleware(), requestLogger.Middleware(), requestMetrics.Middleware(), errorHandler)
	if cfg.CORSOrigin != "" {
		router.Use(corsMiddleware(cfg.CORSOrigin))
	}

	handlers.NewHealthHandler().RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(), rateLimit.Middleware())
	handlers.NewVerifyHandler(verificationSvc).RegisterRoutes(v1)
	handlers.NewCredentialHandler(issuerSvc).RegisterRoutes(v1)
	handlers.NewProofHandler(verifierSvc).RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in the background. It returns once the listener is
// scheduled; watch the returned channel for terminal errors (it is closed
// without a value on a clean shutdown).
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("public api listening on %s", s.httpServer.Addr)
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

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-ZeroID-Version, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
