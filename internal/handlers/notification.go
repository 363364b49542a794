package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/identity"
	"bee-social/internal/models"
	"bee-social/internal/repositories"
)

const notificationLimit = 50

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	repo     repositories.NotificationRepository
	profiles identity.Resolver
}

func NewNotificationHandler(repo repositories.NotificationRepository, profiles identity.Resolver) *NotificationHandler {
	return &NotificationHandler{repo: repo, profiles: profiles}
}

// List returns the newest notifications with their actors.
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.repo.ListForUser(ctx, currentUserID(c), notificationLimit)
	if err != nil {
		fail(c, apperrors.Internal("failed to load notifications").Wrap(err))
		return
	}

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ActorID)
	}
	actors := resolveProfiles(ctx, h.profiles.Profiles, ids)

	views := make([]models.NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, models.NotificationView{Notification: n, Actor: profileOrStub(actors, n.ActorID)})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.repo.CountUnread(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, apperrors.Internal("failed to count notifications").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAllRead clears the caller's unread flag on every notification.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	marked, err := h.repo.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, apperrors.Internal("failed to mark notifications read").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
