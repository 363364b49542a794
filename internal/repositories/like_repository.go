package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

// LikeRepository mutates likes. Every call serializes on the post row.
type LikeRepository interface {
	ToggleLike(ctx context.Context, postID int, userID string) (models.LikeState, *models.Notification, error)
	SetLike(ctx context.Context, postID int, userID string, liked bool) (models.LikeState, *models.Notification, error)
}

// LikeRepo is a sqlx implementation of LikeRepository.
type LikeRepo struct {
	db *sqlx.DB
}

func NewLikeRepo(db *sqlx.DB) *LikeRepo {
	return &LikeRepo{db: db}
}

type likeMode int

const (
	likeToggle likeMode = iota
	likeOn
	likeOff
)

// ToggleLike flips the caller's like on the post.
func (r *LikeRepo) ToggleLike(ctx context.Context, postID int, userID string) (models.LikeState, *models.Notification, error) {
	return r.mutate(ctx, postID, userID, likeToggle)
}

// SetLike drives the like to the requested state; repeating it is a no-op.
func (r *LikeRepo) SetLike(ctx context.Context, postID int, userID string, liked bool) (models.LikeState, *models.Notification, error) {
	if liked {
		return r.mutate(ctx, postID, userID, likeOn)
	}
	return r.mutate(ctx, postID, userID, likeOff)
}

func (r *LikeRepo) mutate(ctx context.Context, postID int, userID string, mode likeMode) (models.LikeState, *models.Notification, error) {
	state := models.LikeState{PostID: postID}
	var notif *models.Notification

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		authorID, err := lockLivePost(ctx, tx, postID)
		if err != nil {
			return err
		}

		removed := false
		if mode != likeOn {
			res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id=$1 AND user_id=$2`, postID, userID)
			if err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			removed = n > 0
		}

		if mode == likeOn || (mode == likeToggle && !removed) {
			res, err := tx.ExecContext(ctx, `INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
			if err != nil {
				return fmt.Errorf("insert like: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			state.Liked = true
			state.Created = n > 0
		}

		if err := tx.GetContext(ctx, &state.LikeCount, `SELECT COUNT(*) FROM likes WHERE post_id=$1`, postID); err != nil {
			return fmt.Errorf("count likes: %w", err)
		}

		if state.Created && authorID != userID {
			notif, err = insertNotification(ctx, tx, models.Notification{
				UserID:  authorID,
				ActorID: userID,
				Type:    models.NotificationLike,
				PostID:  &postID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return models.LikeState{}, nil, err
	}
	return state, notif, nil
}
