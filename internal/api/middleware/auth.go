package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/auth"
	"imtr/backend/pkg/jwt"
	"imtr/backend/pkg/response"
)

// Context keys set by JWTAuth
const (
	PrincipalKey = "principal"
	ClaimsKey    = "claims"
)

// RevocationChecker reports logged-out token ids
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth verifies the Bearer access token and stores the caller's Principal
// and claims in the context. revoked may be nil.
func JWTAuth(jwtMgr *jwt.Manager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, "invalid token type")
			c.Abort()
			return
		}

		if revoked != nil {
			// a failing blacklist lookup lets the token through
			if isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID); err == nil && isRevoked {
				response.Unauthorized(c, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(PrincipalKey, auth.NewPrincipal(claims.UserID, claims.Role))
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// RequireCapability rejects callers lacking any of caps with 403
func RequireCapability(caps ...auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(PrincipalKey)
		if !exists {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		principal, ok := v.(*auth.Principal)
		if !ok || !principal.CanAll(caps...) {
			response.Forbidden(c, "you do not have permission to access this resource")
			c.Abort()
			return
		}

		c.Next()
	}
}
