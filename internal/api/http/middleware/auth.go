package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zeroidhq/zeroid-core/internal/api/apperror"
)

const apiKeyContextKey = "api_key"

// requiredProtocolVersion is the value every protected request must send in
// X-ZeroID-Version, per spec.md §6.
const requiredProtocolVersion = "1"

// Auth enforces the bearer-token allow-list and protocol version header on
// every protected route.
type Auth struct {
	allowed map[string]struct{}
}

// NewAuth builds the auth middleware from the configured API key
// allow-list.
func NewAuth(apiKeys []string) *Auth {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return &Auth{allowed: allowed}
}

// Middleware returns the gin handler.
func (m *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-ZeroID-Version") != requiredProtocolVersion {
			WriteError(c, apperror.Validation("missing or unsupported X-ZeroID-Version header", "X-ZeroID-Version"))
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			WriteError(c, apperror.Auth("missing bearer token", http.StatusUnauthorized))
			return
		}

		if _, known := m.allowed[token]; !known {
			WriteError(c, apperror.Auth("invalid API key", http.StatusForbidden))
			return
		}

		c.Set(apiKeyContextKey, token)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// APIKey returns the caller's API key, set by Auth's middleware. Empty if
// the route isn't behind Auth (e.g. /health).
func APIKey(c *gin.Context) string {
	if v, ok := c.Get(apiKeyContextKey); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}
	return ""
}
