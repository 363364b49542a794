package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/logger"
)

// ErrorHandlerMiddleware renders errors attached with c.Error and recovers panics.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Str("request_id", c.GetString(RequestIDKey)).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.Internal("internal server error"))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := apperrors.From(c.Errors.Last().Err)
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(appErr).
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Msg("request failed")
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.Status, appErr)
	}
}
