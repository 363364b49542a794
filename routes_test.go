package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bee-social/internal/config"
	"bee-social/internal/handlers"
	"bee-social/internal/middleware"
	"bee-social/internal/mocks"
	"bee-social/internal/models"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(_ context.Context, token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func testRouter(t *testing.T) (http.Handler, *mocks.PostRepositoryMock) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	posts := new(mocks.PostRepositoryMock)
	r := newRouter(cfg, routerDeps{
		users:         new(mocks.UserRepositoryMock),
		chats:         new(mocks.ChatRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		follows:       new(mocks.FollowRepositoryMock),
		notifications: new(mocks.NotificationRepositoryMock),
		posts:         posts,
		likes:         new(mocks.LikeRepositoryMock),
		comments:      new(mocks.CommentRepositoryMock),
		directory:     new(mocks.ResolverMock),
		images:        new(mocks.BlobStoreMock),
		limiter:       new(mocks.LimiterMock),
		ipLimiter:     middleware.NewIPRateLimiter(100, 100),
		verifier:      staticVerifier{"tok-alice": "user_alice"},
		checks:        map[string]handlers.HealthCheck{"postgres": func(context.Context) error { return nil }},
	})
	return r, posts
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bee_http_requests_total")
}

func TestRouterRequiresAuthForWrites(t *testing.T) {
	r, _ := testRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/chats"},
		{http.MethodPost, "/posts"},
		{http.MethodPost, "/users/user_bob/follow"},
		{http.MethodGet, "/me/notifications"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterFeedPersonalizedByOptionalAuth(t *testing.T) {
	r, posts := testRouter(t)
	posts.On("ListRecent", mock.Anything, "", 100).Return([]models.Post{}, nil).Once()
	posts.On("ListRecent", mock.Anything, "user_alice", 100).Return([]models.Post{}, nil).Once()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer tok-alice")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	posts.AssertExpectations(t)
}
