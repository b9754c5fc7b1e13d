package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pitchey-api/internal/auth"
)

// Context keys set by RequireAuth.
const (
	UserIDKey    = "userID"
	UserKey      = "user"
	SessionIDKey = "sessionID"
)

// IdentityResolver resolves the caller of a request.
type IdentityResolver interface {
	Resolve(ctx context.Context, r *http.Request) auth.Result
}

// RequireAuth resolves the caller through the identity chain and rejects
// anonymous requests with 401.
func RequireAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := resolver.Resolve(c.Request.Context(), c.Request)
		if !res.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		c.Set(UserIDKey, res.Identity.User.ID)
		c.Set(UserKey, res.Identity.User)
		c.Set(SessionIDKey, res.Identity.SessionID)
		c.Next()
	}
}
