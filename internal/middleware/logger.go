package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/logger"
)

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		log := logger.With(
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"uri", c.Request.RequestURI,
			"status", statusCode,
			"latency", time.Since(startTime),
			"user_agent", c.Request.UserAgent(),
		)
		if uid := c.GetUint("userId"); uid != 0 {
			log = log.With("user_id", uid)
		}

		switch {
		case statusCode >= 500:
			log.Error("request failed")
		case statusCode >= 400:
			log.Warn("client error")
		default:
			log.Info("request")
		}
	}
}
