package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/blob"
	"bee-social/internal/identity"
	"bee-social/internal/logger"
	"bee-social/internal/models"
	"bee-social/internal/observability"
	"bee-social/internal/ratelimit"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
)

const (
	maxPostLength    = 280
	maxCommentLength = 280
	feedLimit        = 100
)

// PostHandler serves the feed, likes and comments.
type PostHandler struct {
	postRepo    repositories.PostRepository
	likeRepo    repositories.LikeRepository
	commentRepo repositories.CommentRepository
	profiles    identity.Resolver
	images      blob.Store
	limiter     ratelimit.Limiter
	events      telemetry.Sink
	imageURLTTL time.Duration
}

// PostDeps groups PostHandler collaborators.
type PostDeps struct {
	Posts       repositories.PostRepository
	Likes       repositories.LikeRepository
	Comments    repositories.CommentRepository
	Profiles    identity.Resolver
	Images      blob.Store
	Limiter     ratelimit.Limiter
	Events      telemetry.Sink
	ImageURLTTL time.Duration
}

func NewPostHandler(deps PostDeps) *PostHandler {
	return &PostHandler{
		postRepo:    deps.Posts,
		likeRepo:    deps.Likes,
		commentRepo: deps.Comments,
		profiles:    deps.Profiles,
		images:      deps.Images,
		limiter:     deps.Limiter,
		events:      deps.Events,
		imageURLTTL: deps.ImageURLTTL,
	}
}

// ListPosts returns the global feed.
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.postRepo.ListRecent(c.Request.Context(), currentUserID(c), feedLimit)
	if err != nil {
		fail(c, apperrors.Internal("failed to load posts").Wrap(err))
		return
	}
	h.respondPosts(c, posts)
}

// ListUserPosts returns one author's posts.
func (h *PostHandler) ListUserPosts(c *gin.Context) {
	authorID := c.Param("user_id")
	posts, err := h.postRepo.ListByAuthor(c.Request.Context(), authorID, currentUserID(c), feedLimit)
	if err != nil {
		fail(c, apperrors.Internal("failed to load posts").Wrap(err))
		return
	}
	h.respondPosts(c, posts)
}

// GetPost returns a single post.
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	post, err := h.postRepo.GetPost(c.Request.Context(), postID, currentUserID(c))
	if errors.Is(err, repositories.ErrPostNotFound) {
		fail(c, apperrors.NotFound("post not found"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to load post").Wrap(err))
		return
	}

	views, appErr := h.views(c.Request.Context(), []models.Post{post})
	if appErr != nil {
		fail(c, appErr)
		return
	}
	c.JSON(http.StatusOK, views[0])
}

type createPostRequest struct {
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

// CreatePost publishes a post with an optional base64 image.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.BadRequest("invalid request body").Wrap(err))
		return
	}
	content, appErr := validText(req.Content, maxPostLength, "post")
	if appErr != nil {
		fail(c, appErr)
		return
	}

	var img *blob.Image
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		decoded, err := blob.DecodeImage(*req.Image)
		if err != nil {
			fail(c, apperrors.BadRequest(err.Error()))
			return
		}
		img = &decoded
	}

	userID := currentUserID(c)
	if !h.allow(c, "post", userID) {
		return
	}

	ctx := c.Request.Context()
	author, err := h.profiles.Profile(ctx, userID)
	if err != nil {
		fail(c, apperrors.Internal("post author is unknown").Wrap(err))
		return
	}

	var imageKey *string
	if img != nil {
		key := blob.PostImageKey(*img)
		if err := h.images.Put(ctx, key, img.Data, img.ContentType); err != nil {
			fail(c, apperrors.BadGateway("failed to store image").Wrap(err))
			return
		}
		imageKey = &key
	}

	post, err := h.postRepo.CreatePost(ctx, userID, content, imageKey)
	if err != nil {
		fail(c, apperrors.Internal("failed to create post").Wrap(err))
		return
	}
	emit(h.events, c, telemetry.EventPostCreated, gin.H{"postId": post.ID, "authorId": userID})

	c.JSON(http.StatusCreated, models.PostView{Post: post, Author: author, ImageURL: h.imageURL(ctx, post.ImageKey)})
}

// DeletePost soft-deletes the caller's own post.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	err := h.postRepo.SoftDeletePost(c.Request.Context(), postID, currentUserID(c))
	switch {
	case errors.Is(err, repositories.ErrPostNotFound):
		fail(c, apperrors.NotFound("post not found"))
	case errors.Is(err, repositories.ErrNotAuthor):
		fail(c, apperrors.Forbidden("only the author can delete this post"))
	case err != nil:
		fail(c, apperrors.Internal("failed to delete post").Wrap(err))
	default:
		c.Status(http.StatusNoContent)
	}
}

// ToggleLike flips the caller's like.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	state, notif, err := h.likeRepo.ToggleLike(c.Request.Context(), postID, currentUserID(c))
	h.respondLike(c, state, notif, err)
}

// SetLike drives the caller's like to an explicit state.
func (h *PostHandler) SetLike(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	var req struct {
		Liked *bool `json:"liked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Liked == nil {
		fail(c, apperrors.BadRequest("liked is required"))
		return
	}
	state, notif, err := h.likeRepo.SetLike(c.Request.Context(), postID, currentUserID(c), *req.Liked)
	h.respondLike(c, state, notif, err)
}

func (h *PostHandler) respondLike(c *gin.Context, state models.LikeState, notif *models.Notification, err error) {
	if errors.Is(err, repositories.ErrPostNotFound) {
		fail(c, apperrors.NotFound("post not found"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to update like").Wrap(err))
		return
	}
	observability.IncLikeMutation(state.Liked)
	notify(h.events, c, notif)
	c.JSON(http.StatusOK, state)
}

// CreateComment adds a comment to a post.
func (h *PostHandler) CreateComment(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.BadRequest("invalid request body").Wrap(err))
		return
	}
	content, appErr := validText(req.Content, maxCommentLength, "comment")
	if appErr != nil {
		fail(c, appErr)
		return
	}

	userID := currentUserID(c)
	if !h.allow(c, "comment", userID) {
		return
	}

	ctx := c.Request.Context()
	comment, notif, err := h.commentRepo.CreateComment(ctx, postID, userID, content)
	if errors.Is(err, repositories.ErrPostNotFound) {
		fail(c, apperrors.NotFound("post not found"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to add comment").Wrap(err))
		return
	}
	notify(h.events, c, notif)

	author, err := h.profiles.Profile(ctx, userID)
	if err != nil {
		author = models.Profile{ID: userID}
	}
	c.JSON(http.StatusCreated, models.CommentView{Comment: comment, Author: author})
}

// ListComments returns a post's comments, oldest first.
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, ok := intParam(c, "post_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	comments, err := h.commentRepo.ListComments(ctx, postID)
	if errors.Is(err, repositories.ErrPostNotFound) {
		fail(c, apperrors.NotFound("post not found"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to load comments").Wrap(err))
		return
	}

	ids := make([]string, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	profiles := resolveProfiles(ctx, h.profiles.Profiles, ids)

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, models.CommentView{Comment: cm, Author: profileOrStub(profiles, cm.UserID)})
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

// DeleteComment soft-deletes the caller's own comment.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	commentID, ok := intParam(c, "comment_id")
	if !ok {
		return
	}
	err := h.commentRepo.SoftDeleteComment(c.Request.Context(), commentID, currentUserID(c))
	switch {
	case errors.Is(err, repositories.ErrCommentNotFound):
		fail(c, apperrors.NotFound("comment not found"))
	case errors.Is(err, repositories.ErrNotAuthor):
		fail(c, apperrors.Forbidden("only the author can delete this comment"))
	case err != nil:
		fail(c, apperrors.Internal("failed to delete comment").Wrap(err))
	default:
		c.Status(http.StatusNoContent)
	}
}

// allow applies the per-user write limit for action.
func (h *PostHandler) allow(c *gin.Context, action, userID string) bool {
	if h.limiter == nil {
		return true
	}
	ok, err := h.limiter.Allow(c.Request.Context(), ratelimit.Key(action, userID))
	if err != nil {
		fail(c, apperrors.Internal("rate limiter unavailable").Wrap(err))
		return false
	}
	if !ok {
		observability.IncRateLimited(action)
		fail(c, apperrors.TooManyRequests(fmt.Sprintf("too many %ss, slow down", action)))
		return false
	}
	return true
}

func (h *PostHandler) respondPosts(c *gin.Context, posts []models.Post) {
	views, appErr := h.views(c.Request.Context(), posts)
	if appErr != nil {
		fail(c, appErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": views})
}

// views joins posts with their authors. A post whose author cannot be
// resolved anywhere is a data integrity failure.
func (h *PostHandler) views(ctx context.Context, posts []models.Post) ([]models.PostView, *apperrors.AppError) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	var profiles map[string]models.Profile
	if len(ids) > 0 {
		var err error
		if profiles, err = h.profiles.Profiles(ctx, ids); err != nil {
			return nil, apperrors.Internal("failed to load authors").Wrap(err)
		}
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		author, ok := profiles[p.AuthorID]
		if !ok {
			return nil, apperrors.Internal("post author not found").Wrap(fmt.Errorf("post %d author %s", p.ID, p.AuthorID))
		}
		views = append(views, models.PostView{Post: p, Author: author, ImageURL: h.imageURL(ctx, p.ImageKey)})
	}
	return views, nil
}

func (h *PostHandler) imageURL(ctx context.Context, key *string) string {
	if key == nil || h.images == nil {
		return ""
	}
	url, err := h.images.PresignGet(ctx, *key, h.imageURLTTL)
	if err != nil {
		logger.Warn().Err(err).Str("key", *key).Msg("presign image failed")
		return ""
	}
	return url
}

func validText(raw string, max int, what string) (string, *apperrors.AppError) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", apperrors.BadRequest(what + " content is required")
	}
	if utf8.RuneCountInString(text) > max {
		return "", apperrors.BadRequest(fmt.Sprintf("%s content must be at most %d characters", what, max))
	}
	return text, nil
}
