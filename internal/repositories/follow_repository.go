package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

var (
	ErrFollowNotFound = errors.New("follow relation not found")
	ErrSelfFollow     = errors.New("cannot follow self")
)

// FollowRepository manages the follow graph.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) (models.Follow, *models.Notification, error)
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Counts(ctx context.Context, userID string) (models.FollowCounts, error)
}

// FollowRepo is a sqlx implementation of FollowRepository.
type FollowRepo struct {
	db *sqlx.DB
}

func NewFollowRepo(db *sqlx.DB) *FollowRepo {
	return &FollowRepo{db: db}
}

// Follow creates the edge if missing. A FOLLOW notification is created the
// first time followerID ever follows followingID; the returned notification is
// nil otherwise.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followingID string) (models.Follow, *models.Notification, error) {
	if followerID == followingID {
		return models.Follow{}, nil, ErrSelfFollow
	}

	var (
		edge  models.Follow
		notif *models.Notification
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)
            ON CONFLICT (follower_id, following_id) DO NOTHING`, followerID, followingID); err != nil {
			return fmt.Errorf("insert follow: %w", err)
		}
		if err := tx.GetContext(ctx, &edge, `SELECT follower_id, following_id, created_at FROM follows
            WHERE follower_id=$1 AND following_id=$2`, followerID, followingID); err != nil {
			return fmt.Errorf("load follow: %w", err)
		}

		var err error
		notif, err = insertNotification(ctx, tx, models.Notification{
			UserID:  followingID,
			ActorID: followerID,
			Type:    models.NotificationFollow,
		})
		return err
	})
	if err != nil {
		return models.Follow{}, nil, err
	}
	return edge, notif, nil
}

// Unfollow removes the edge. Notifications are kept.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followingID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id=$1 AND following_id=$2`, followerID, followingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND following_id=$2)`, followerID, followingID)
	return exists, err
}

func (r *FollowRepo) Counts(ctx context.Context, userID string) (models.FollowCounts, error) {
	var counts models.FollowCounts
	err := r.db.GetContext(ctx, &counts, `SELECT
            (SELECT COUNT(*) FROM follows WHERE following_id=$1) AS followers,
            (SELECT COUNT(*) FROM follows WHERE follower_id=$1) AS following`, userID)
	return counts, err
}
