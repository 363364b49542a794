package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotAuthor    = errors.New("user is not the author")
)

// PostRepository persists posts. Reads never return soft-deleted posts.
type PostRepository interface {
	CreatePost(ctx context.Context, authorID string, content string, imageKey *string) (models.Post, error)
	GetPost(ctx context.Context, postID int, viewerID string) (models.Post, error)
	ListRecent(ctx context.Context, viewerID string, limit int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID string, viewerID string, limit int) ([]models.Post, error)
	SoftDeletePost(ctx context.Context, postID int, authorID string) error
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// $1 is always the viewer id; an empty viewer never matches a like.
const postSelect = `SELECT p.id, p.author_id, p.content, p.image_key, p.created_at, p.deleted_at,
        (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
        (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.deleted_at IS NULL) AS comment_count,
        EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked_by_me
    FROM posts p`

func (r *PostRepo) CreatePost(ctx context.Context, authorID string, content string, imageKey *string) (models.Post, error) {
	var post models.Post
	err := r.db.QueryRowxContext(ctx, `INSERT INTO posts (author_id, content, image_key) VALUES ($1, $2, $3)
        RETURNING id, author_id, content, image_key, created_at, deleted_at`, authorID, content, imageKey).StructScan(&post)
	if err != nil {
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (r *PostRepo) GetPost(ctx context.Context, postID int, viewerID string) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id=$2 AND p.deleted_at IS NULL`, viewerID, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// ListRecent returns the global feed, newest first.
func (r *PostRepo) ListRecent(ctx context.Context, viewerID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, postSelect+` WHERE p.deleted_at IS NULL
        ORDER BY p.created_at DESC, p.id DESC LIMIT $2`, viewerID, limit)
	return posts, err
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string, viewerID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, postSelect+` WHERE p.author_id=$2 AND p.deleted_at IS NULL
        ORDER BY p.created_at DESC, p.id DESC LIMIT $3`, viewerID, authorID, limit)
	return posts, err
}

// SoftDeletePost hides a post. Only the author may delete it.
func (r *PostRepo) SoftDeletePost(ctx context.Context, postID int, authorID string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owner string
		err := tx.GetContext(ctx, &owner, `SELECT author_id FROM posts WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, postID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}
		if owner != authorID {
			return ErrNotAuthor
		}
		_, err = tx.ExecContext(ctx, `UPDATE posts SET deleted_at=NOW() WHERE id=$1`, postID)
		return err
	})
}

// lockLivePost locks a non-deleted post row and returns its author.
func lockLivePost(ctx context.Context, tx *sqlx.Tx, postID int) (string, error) {
	var authorID string
	err := tx.GetContext(ctx, &authorID, `SELECT author_id FROM posts WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPostNotFound
	}
	return authorID, err
}
