package handler

import (
	"net/http"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthCheck handles GET /health: a deep check of every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

// Status handles GET /status with process uptime.
func Status(version string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "running",
			"version":        version,
			"started_at":     startedAt.UTC().Format(time.RFC3339),
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	}
}
