package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Liveness confirms the process can serve HTTP, without checking backends.
func Liveness(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "alive",
			"service": service,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		})
	}
}
