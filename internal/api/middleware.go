package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/ratelimit"
)

const claimsContextKey = "auth.claims"
const userContextKey = "auth.user"

// securityHeaders sets standard response headers, adapted from the
// teacher's Echo-based pkg/api/middleware.go into Gin idiom.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// rateLimit applies the admission-layer Guard before any handler runs.
// The identity key is derived without ever trusting client-settable
// headers (spec.md §4.E) — only the trusted edge header or the raw
// transport peer address feed ratelimit.Key.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, authenticated := int64(0), false
		if claims, ok := c.Get(claimsContextKey); ok {
			userID = claims.(model.Claims).UserID
			authenticated = true
		}
		key := ratelimit.Key(userID, authenticated, c.GetHeader(ratelimit.TrustedEdgeHeader), c.ClientIP())

		decision := s.guard.Admit(c.Request.Context(), c.FullPath(), key)
		if !decision.Allowed {
			s.audit.RateLimitExceeded(key, c.FullPath())
			respondError(c, apperr.Admission("rate_limited", "too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAuth validates the bearer token against wantType and stores the
// claims/user in the request context for downstream handlers.
func (s *Server) requireAuth(wantType model.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, apperr.Authentication("missing_token", "authorization header required"))
			c.Abort()
			return
		}
		user, claims, err := s.validator.Validate(c.Request.Context(), token, wantType)
		if err != nil {
			s.audit.TokenValidationFailure(apperr.KindOf(err).String(), claims.JTI)
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(claimsContextKey, claims)
		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func claimsFromContext(c *gin.Context) model.Claims {
	v, _ := c.Get(claimsContextKey)
	claims, _ := v.(model.Claims)
	return claims
}

func userFromContext(c *gin.Context) *model.User {
	v, _ := c.Get(userContextKey)
	user, _ := v.(*model.User)
	return user
}

// requireAdminToken implements the constant-time X-Admin-Token check for
// admin endpoints (spec.md §6).
func (s *Server) requireAdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Admin-Token")
		if s.settings.AdminToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(s.settings.AdminToken)) != 1 {
			s.audit.PermissionDenied(0, c.FullPath())
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
