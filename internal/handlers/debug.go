package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bee-social/internal/telemetry"
)

const eventDebugPing = "debug.ping"

// RegisterDebugRoutes wires development-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, events telemetry.Sink, enabled bool) {
	if !enabled {
		return
	}

	// Pushes a synthetic event through the bus so consumers can be checked end to end.
	router.POST("/debug/events", func(c *gin.Context) {
		if events == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event sink not configured"})
			return
		}
		emit(events, c, eventDebugPing, gin.H{"path": c.FullPath()})
		c.JSON(http.StatusOK, gin.H{"status": "ok", "requestId": requestID(c)})
	})
}
