package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/response"
)

// Recovery turns a panic into a 500 response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.With(
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"stack", string(debug.Stack()),
				).Error(fmt.Sprintf("panic recovered: %v", r))
				response.Error(c, apperr.Internal("internal server error", fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
