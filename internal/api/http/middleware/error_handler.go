package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
)

// ErrorHandler renders the last handler error (if any) as the standard
// error envelope. Handlers are expected to push an *apperror.Error via
// c.Error; anything else is treated as an unclassified internal error.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperror.As(err)
		if !ok {
			logger.Error("handler returned an unclassified error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			appErr = apperror.Internal(err)
		}

		logger.Error("http error",
			zap.String("code", appErr.Code),
			zap.String("path", c.Request.URL.Path),
			zap.Error(appErr))

		resp := appErr.Response().
			WithRequestID(GetRequestID(c)).
			WithTimestamp(time.Now().UTC().Format(time.RFC3339))
		c.JSON(appErr.Status, resp)
		c.Abort()
	}
}

// WriteError pushes an *apperror.Error onto the gin context for
// ErrorHandler to render, and aborts the chain.
func WriteError(c *gin.Context, err *apperror.Error) {
	_ = c.Error(err)
	c.Abort()
}
