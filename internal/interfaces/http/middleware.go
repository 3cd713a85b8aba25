package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/training-procurement/internal/application/service"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

// authMiddleware resolves the bearer token into an Identity stored on the context
func authMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "missing bearer token"})
			return
		}

		identity, err := auth.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid or expired session"})
			return
		}

		c.Set(identityKey, identity)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// requireRoles rejects callers whose role is not listed
func requireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Success: false, Error: "forbidden"})
	}
}

// identityFrom returns the identity set by authMiddleware, or the zero value
func identityFrom(c *gin.Context) entity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(entity.Identity); ok {
			return identity
		}
	}
	return entity.Identity{}
}
