package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bee-social/internal/observability"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// RequestIDMiddleware reuses the caller's X-Request-Id or assigns a new one
// and echoes it in the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(observability.RequestIDHeader, requestID)
		}
		c.Set(RequestIDKey, requestID)
		c.Header(observability.RequestIDHeader, requestID)
		c.Next()
	}
}
