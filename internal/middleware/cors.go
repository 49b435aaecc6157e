package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/config"
)

// Cors answers preflight requests and sets the allow headers for origins in
// server.allowed_origins. "*" allows any origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
			c.Header("Access-Control-Expose-Headers", "Content-Disposition")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string) bool {
	if config.GlobalConfig == nil {
		return false
	}
	for _, o := range config.GlobalConfig.Server.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
