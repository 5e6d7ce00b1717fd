package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeroidhq/zeroid-core/internal/log"
)

// Logger records one structured log line per request.
type Logger struct {
	logger log.Logger
}

// NewLogger builds the request logging middleware.
func NewLogger(logger log.Logger) *Logger {
	return &Logger{logger: logger}
}

// Middleware returns the gin handler.
func (m *Logger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		requestID := GetRequestID(c)

		c.Next()

		latency := time.Since(start)

		if zl := log.ZapLogger(m.logger); zl != nil {
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.String("query", query),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("latency", latency),
				zap.String("client_ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			}
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("errors", c.Errors.String()))
			}
			switch {
			case c.Writer.Status() >= 500:
				zl.Error("http request", fields...)
			case c.Writer.Status() >= 400:
				zl.Warn("http request", fields...)
			default:
				zl.Info("http request", fields...)
			}
			return
		}

		m.logger.Infof("http request id=%s method=%s path=%s?%s status=%d latency=%s ip=%s",
			requestID, c.Request.Method, path, query, c.Writer.Status(), latency, c.ClientIP())
	}
}
