package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"moviehub/internal/apperr"
)

const CtxClaimsKey = "auth_claims"

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			apperr.Respond(c, apperr.Unauthorized("missing bearer token"))
			return
		}

		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			apperr.Respond(c, apperr.Unauthorized("invalid token"))
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MustGetClaims(c)
		if claims == nil {
			apperr.Respond(c, apperr.Unauthorized("invalid token"))
			return
		}
		if !claims.IsAdmin() {
			apperr.Respond(c, apperr.Forbidden("admin only"))
			return
		}
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
