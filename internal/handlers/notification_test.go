package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bee-social/internal/mocks"
	"bee-social/internal/models"
)

func setupNotificationRouter() (*gin.Engine, *mocks.NotificationRepositoryMock, *mocks.ResolverMock) {
	gin.SetMode(gin.TestMode)
	repo := new(mocks.NotificationRepositoryMock)
	profiles := new(mocks.ResolverMock)
	handler := NewNotificationHandler(repo, profiles)

	r := gin.New()
	r.Use(withCaller(me))
	r.GET("/me/notifications", handler.List)
	r.GET("/me/notifications/unread-count", handler.UnreadCount)
	r.POST("/me/notifications/read", handler.MarkAllRead)
	return r, repo, profiles
}

func TestListNotificationsWithActors(t *testing.T) {
	r, repo, profiles := setupNotificationRouter()

	repo.On("ListForUser", mock.Anything, me, notificationLimit).Return([]models.Notification{
		{ID: 2, UserID: me, ActorID: "user_bob", Type: models.NotificationFollow},
		{ID: 1, UserID: me, ActorID: "user_carol", Type: models.NotificationComment},
	}, nil).Once()
	profiles.On("Profiles", mock.Anything, []string{"user_bob", "user_carol"}).
		Return(nil, assert.AnError).Once()

	rec := serve(r, http.MethodGet, "/me/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []models.NotificationView `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, models.NotificationFollow, resp.Notifications[0].Type)
	assert.Equal(t, "user_bob", resp.Notifications[0].Actor.ID)
}

func TestNotificationCounters(t *testing.T) {
	r, repo, _ := setupNotificationRouter()
	repo.On("CountUnread", mock.Anything, me).Return(4, nil).Once()
	repo.On("MarkAllRead", mock.Anything, me).Return(4, nil).Once()

	rec := serve(r, http.MethodGet, "/me/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decodeBody(t, rec)["count"])

	rec = serve(r, http.MethodPost, "/me/notifications/read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decodeBody(t, rec)["marked"])
}

func TestNotificationRepoError(t *testing.T) {
	r, repo, _ := setupNotificationRouter()
	repo.On("ListForUser", mock.Anything, me, notificationLimit).Return(nil, assert.AnError).Once()

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/me/notifications", "").Code)
}
