package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/identity"
	"bee-social/internal/models"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
)

const (
	searchLimit   = 10
	userListLimit = 100
)

// UserHandler serves profiles, search and the follow graph.
type UserHandler struct {
	userRepo   repositories.UserRepository
	followRepo repositories.FollowRepository
	profiles   identity.Resolver
	events     telemetry.Sink
}

func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, profiles identity.Resolver, events telemetry.Sink) *UserHandler {
	return &UserHandler{userRepo: userRepo, followRepo: followRepo, profiles: profiles, events: events}
}

// ListUsers lists mirrored users, or searches them when ?search is set.
func (h *UserHandler) ListUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("search"))
	limit := userListLimit
	if query != "" {
		limit = searchLimit
	}

	users, err := h.userRepo.Search(c.Request.Context(), query, limit)
	if err != nil {
		fail(c, apperrors.Internal("failed to load users").Wrap(err))
		return
	}
	out := make([]models.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// GetByUsername returns one profile by username.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.userRepo.GetByUsername(c.Request.Context(), c.Param("username"))
	if errors.Is(err, repositories.ErrUserNotFound) {
		fail(c, apperrors.NotFound("user not found"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to load user").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

// Sync refreshes the caller's mirrored profile from the identity provider.
func (h *UserHandler) Sync(c *gin.Context) {
	u, err := h.profiles.Sync(c.Request.Context(), currentUserID(c))
	switch {
	case errors.Is(err, repositories.ErrUsernameTaken):
		fail(c, apperrors.Conflict("username is already taken"))
	case errors.Is(err, identity.ErrUnknownUser):
		fail(c, apperrors.NotFound("user not found in identity provider"))
	case err != nil:
		fail(c, apperrors.BadGateway("identity provider unavailable").Wrap(err))
	default:
		c.JSON(http.StatusOK, u.Public())
	}
}

// Follow makes the caller follow the user in the path.
func (h *UserHandler) Follow(c *gin.Context) {
	targetID := c.Param("user_id")
	userID := currentUserID(c)
	if targetID == userID {
		fail(c, apperrors.BadRequest("cannot follow yourself"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.profiles.Profile(ctx, targetID); err != nil {
		if errors.Is(err, identity.ErrUnknownUser) {
			fail(c, apperrors.NotFound("user not found"))
			return
		}
		fail(c, apperrors.Internal("failed to resolve user").Wrap(err))
		return
	}

	_, notif, err := h.followRepo.Follow(ctx, userID, targetID)
	if errors.Is(err, repositories.ErrSelfFollow) {
		fail(c, apperrors.BadRequest("cannot follow yourself"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to follow user").Wrap(err))
		return
	}
	notify(h.events, c, notif)
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow removes the caller's follow edge.
func (h *UserHandler) Unfollow(c *gin.Context) {
	err := h.followRepo.Unfollow(c.Request.Context(), currentUserID(c), c.Param("user_id"))
	if errors.Is(err, repositories.ErrFollowNotFound) {
		fail(c, apperrors.NotFound("not following this user"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to unfollow user").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *UserHandler) IsFollowing(c *gin.Context) {
	following, err := h.followRepo.IsFollowing(c.Request.Context(), currentUserID(c), c.Param("user_id"))
	if err != nil {
		fail(c, apperrors.Internal("failed to check follow").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (h *UserHandler) FollowCounts(c *gin.Context) {
	counts, err := h.followRepo.Counts(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, apperrors.Internal("failed to count follows").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, counts)
}
