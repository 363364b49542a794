package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository persists comments on posts.
type CommentRepository interface {
	CreateComment(ctx context.Context, postID int, userID string, content string) (models.Comment, *models.Notification, error)
	ListComments(ctx context.Context, postID int) ([]models.Comment, error)
	SoftDeleteComment(ctx context.Context, commentID int, userID string) error
}

// CommentRepo is a sqlx implementation of CommentRepository.
type CommentRepo struct {
	db *sqlx.DB
}

func NewCommentRepo(db *sqlx.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// CreateComment adds a comment and notifies the post author unless the
// commenter is the author.
func (r *CommentRepo) CreateComment(ctx context.Context, postID int, userID string, content string) (models.Comment, *models.Notification, error) {
	var (
		comment models.Comment
		notif   *models.Notification
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		authorID, err := lockLivePost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if err := tx.QueryRowxContext(ctx, `INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3)
            RETURNING id, post_id, user_id, content, created_at, deleted_at`, postID, userID, content).StructScan(&comment); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		if authorID == userID {
			return nil
		}
		notif, err = insertNotification(ctx, tx, models.Notification{
			UserID:  authorID,
			ActorID: userID,
			Type:    models.NotificationComment,
			PostID:  &postID,
		})
		return err
	})
	if err != nil {
		return models.Comment{}, nil, err
	}
	return comment, notif, nil
}

// ListComments returns live comments oldest first. Deleted posts have none.
func (r *CommentRepo) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id=$1 AND deleted_at IS NULL)`, postID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments, `SELECT id, post_id, user_id, content, created_at, deleted_at
        FROM comments WHERE post_id=$1 AND deleted_at IS NULL ORDER BY created_at ASC, id ASC`, postID)
	return comments, err
}

// SoftDeleteComment hides a comment. Only its author may delete it.
func (r *CommentRepo) SoftDeleteComment(ctx context.Context, commentID int, userID string) error {
	var owner string
	err := r.db.GetContext(ctx, &owner, `SELECT user_id FROM comments WHERE id=$1 AND deleted_at IS NULL`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotAuthor
	}
	_, err = r.db.ExecContext(ctx, `UPDATE comments SET deleted_at=NOW() WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`, commentID, userID)
	return err
}
