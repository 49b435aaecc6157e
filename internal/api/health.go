package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
)

// HealthCheck pings the database and the cache. Docker and load balancers
// use it; anything but 200 takes the instance out of rotation.
func HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if err := cache.Default.Ping(ctx); err != nil {
		checks["cache"] = "down"
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
