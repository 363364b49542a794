package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bee-social/internal/identity"
	"bee-social/internal/mocks"
	"bee-social/internal/models"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
)

type userDeps struct {
	users    *mocks.UserRepositoryMock
	follows  *mocks.FollowRepositoryMock
	profiles *mocks.ResolverMock
	events   *mocks.SinkMock
}

func setupUserRouter() (*gin.Engine, userDeps) {
	gin.SetMode(gin.TestMode)
	deps := userDeps{
		users:    new(mocks.UserRepositoryMock),
		follows:  new(mocks.FollowRepositoryMock),
		profiles: new(mocks.ResolverMock),
		events:   new(mocks.SinkMock),
	}
	handler := NewUserHandler(deps.users, deps.follows, deps.profiles, deps.events)

	r := gin.New()
	r.Use(withCaller(me))
	r.GET("/users", handler.ListUsers)
	r.GET("/profiles/:username", handler.GetByUsername)
	r.POST("/me/sync", handler.Sync)
	r.POST("/users/:user_id/follow", handler.Follow)
	r.DELETE("/users/:user_id/follow", handler.Unfollow)
	r.GET("/users/:user_id/follow", handler.IsFollowing)
	r.GET("/users/:user_id/follow-counts", handler.FollowCounts)
	return r, deps
}

func TestListUsersLimits(t *testing.T) {
	r, deps := setupUserRouter()

	deps.users.On("Search", mock.Anything, "", userListLimit).
		Return([]models.User{{ID: "user_bob", Username: "bob", Email: "bob@example.com"}}, nil).Once()
	deps.users.On("Search", mock.Anything, "bo", searchLimit).Return([]models.User{}, nil).Once()

	rec := serve(r, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bob@example.com")

	rec = serve(r, http.MethodGet, "/users?search=%20bo%20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["users"])
	deps.users.AssertExpectations(t)
}

func TestGetByUsername(t *testing.T) {
	r, deps := setupUserRouter()
	deps.users.On("GetByUsername", mock.Anything, "bob").Return(models.User{ID: "user_bob", Username: "bob"}, nil).Once()
	deps.users.On("GetByUsername", mock.Anything, "nobody").Return(nil, repositories.ErrUserNotFound).Once()

	rec := serve(r, http.MethodGet, "/profiles/bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_bob", decodeBody(t, rec)["id"])

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/profiles/nobody", "").Code)
}

func TestSyncErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"username taken", repositories.ErrUsernameTaken, http.StatusConflict},
		{"unknown", identity.ErrUnknownUser, http.StatusNotFound},
		{"provider down", assert.AnError, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, deps := setupUserRouter()
			deps.profiles.On("Sync", mock.Anything, me).Return(models.User{ID: me, Username: "alice"}, tc.err).Once()

			rec := serve(r, http.MethodPost, "/me/sync", "")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestFollowNotifiesOnce(t *testing.T) {
	r, deps := setupUserRouter()
	notif := &models.Notification{ID: 1, UserID: "user_bob", ActorID: me, Type: models.NotificationFollow}

	deps.profiles.On("Profile", mock.Anything, "user_bob").Return(models.Profile{ID: "user_bob"}, nil).Twice()
	deps.follows.On("Follow", mock.Anything, me, "user_bob").Return(models.Follow{FollowerID: me, FollowingID: "user_bob"}, notif, nil).Once()
	deps.follows.On("Follow", mock.Anything, me, "user_bob").Return(models.Follow{FollowerID: me, FollowingID: "user_bob"}, nil, nil).Once()
	deps.events.On("Emit", mock.Anything, telemetry.EventNotificationCreated, mock.Anything, me, notif).Once()

	for i := 0; i < 2; i++ {
		rec := serve(r, http.MethodPost, "/users/user_bob/follow", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["following"])
	}
	deps.events.AssertExpectations(t)
	deps.follows.AssertExpectations(t)
}

func TestFollowRejects(t *testing.T) {
	r, deps := setupUserRouter()
	deps.profiles.On("Profile", mock.Anything, "ghost").Return(nil, identity.ErrUnknownUser).Once()

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/users/"+me+"/follow", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/users/ghost/follow", "").Code)
	deps.follows.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnfollowAndQueries(t *testing.T) {
	r, deps := setupUserRouter()
	deps.follows.On("Unfollow", mock.Anything, me, "user_bob").Return(nil).Once()
	deps.follows.On("Unfollow", mock.Anything, me, "user_carol").Return(repositories.ErrFollowNotFound).Once()
	deps.follows.On("IsFollowing", mock.Anything, me, "user_bob").Return(false, nil).Once()
	deps.follows.On("Counts", mock.Anything, "user_bob").Return(models.FollowCounts{Followers: 2, Following: 1}, nil).Once()

	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/users/user_bob/follow", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/users/user_carol/follow", "").Code)

	rec := serve(r, http.MethodGet, "/users/user_bob/follow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["following"])

	rec = serve(r, http.MethodGet, "/users/user_bob/follow-counts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["followers"])
	assert.Equal(t, float64(1), body["following"])
}
