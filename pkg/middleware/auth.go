package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/metrics"
)

// IdentityKey is the gin context key holding the *identity.Identity of an
// authenticated request.
const IdentityKey = "identity"

// TokenHeader is the header the browser client sends its ID token in.
const TokenHeader = "authtoken"

// ExtractToken returns the raw bearer credential from the authtoken header or
// an "Authorization: Bearer <token>" header. ok is false when the
// Authorization header is present but malformed.
func ExtractToken(r *http.Request) (token string, ok bool) {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t, true
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", true
	}
	scheme, rest, found := strings.Cut(auth, " ")
	rest = strings.TrimSpace(rest)
	if !found || !strings.EqualFold(scheme, "Bearer") || rest == "" {
		return "", false
	}
	return rest, true
}

// AuthMiddleware returns a Gin middleware that verifies bearer credentials using
// the provided verifier. A nil verifier means no identity provider is
// configured: every request is refused with 503 rather than let through.
func AuthMiddleware(ver identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ver == nil {
			metrics.AuthFailures.WithLabelValues("unavailable").Inc()
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
			return
		}
		token, ok := ExtractToken(c.Request)
		if !ok {
			metrics.AuthFailures.WithLabelValues("malformed").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		if token == "" {
			metrics.AuthFailures.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		id, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid").Inc()
			logger.Debugf("token verification failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), id))
		c.Next()
	}
}

// IdentityFrom returns the identity attached by AuthMiddleware.
func IdentityFrom(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok && id != nil
}
