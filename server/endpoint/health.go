package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/version"
)

// Health reports service health. A down component answers 503.
func Health(service string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.Check(c.Request.Context(), service, version.Get().Version, checkers...)
		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"service":    sh.Service,
			"status":     sh.Status,
			"version":    sh.Version,
			"components": sh.Components,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
