package middleware

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
)

// RoleAuth allows the request through only when the authenticated user has
// one of roles. It must run after JWT.
func RoleAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, apperr.Unauthorized("not logged in"))
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, apperr.Forbidden("insufficient permissions"))
	}
}
