package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/logger"
	"bee-social/internal/middleware"
	"bee-social/internal/models"
	"bee-social/internal/observability"
	"bee-social/internal/telemetry"
)

// currentUserID returns the authenticated caller, or "" for anonymous requests.
func currentUserID(c *gin.Context) string {
	if id, ok := middleware.UserIDFromContext(c.Request.Context()); ok {
		return id
	}
	return c.GetString(middleware.UserIDKey)
}

func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return observability.RequestIDFromRequest(c.Request)
}

// fail attaches err for the error middleware and writes the response.
func fail(c *gin.Context, err *apperrors.AppError) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.Status, err)
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		fail(c, apperrors.BadRequest("invalid "+name))
		return 0, false
	}
	return id, true
}

func emit(sink telemetry.Sink, c *gin.Context, eventType string, payload any) {
	if sink == nil {
		return
	}
	sink.Emit(c.Request.Context(), eventType, requestID(c), currentUserID(c), payload)
}

func notify(sink telemetry.Sink, c *gin.Context, n *models.Notification) {
	if n == nil {
		return
	}
	observability.IncNotificationCreated(string(n.Type))
	emit(sink, c, telemetry.EventNotificationCreated, n)
}

// profileOrStub renders unknown users by id so one missing mirror row does
// not break a whole listing.
func profileOrStub(profiles map[string]models.Profile, id string) models.Profile {
	if p, ok := profiles[id]; ok {
		return p
	}
	return models.Profile{ID: id}
}

func resolveProfiles(ctx context.Context, resolve func(context.Context, []string) (map[string]models.Profile, error), ids []string) map[string]models.Profile {
	if len(ids) == 0 {
		return map[string]models.Profile{}
	}
	profiles, err := resolve(ctx, ids)
	if err != nil {
		logger.Warn().Err(err).Int("count", len(ids)).Msg("profile lookup failed")
		return map[string]models.Profile{}
	}
	return profiles
}
