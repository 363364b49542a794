package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

// NotificationRepository reads and updates a user's notifications.
type NotificationRepository interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// NotificationRepo is a sqlx implementation.
type NotificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// ListForUser returns newest notifications first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var items []models.Notification
	err := r.db.SelectContext(ctx, &items, `SELECT id, user_id, actor_id, type, post_id, is_read, created_at
        FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	return items, err
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=FALSE`, userID)
	return count, err
}

// MarkAllRead flags every unread notification of the user and returns how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND is_read=FALSE`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// insertNotification writes a notification inside the caller's transaction.
// FOLLOW and LIKE are deduplicated by partial unique indexes, in which case
// it returns nil without error.
func insertNotification(ctx context.Context, tx *sqlx.Tx, n models.Notification) (*models.Notification, error) {
	var conflict string
	switch n.Type {
	case models.NotificationFollow:
		conflict = `ON CONFLICT (user_id, actor_id) WHERE type = 'FOLLOW' DO NOTHING`
	case models.NotificationLike:
		conflict = `ON CONFLICT (user_id, actor_id, post_id) WHERE type = 'LIKE' DO NOTHING`
	case models.NotificationComment:
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}

	var out models.Notification
	err := tx.QueryRowxContext(ctx, `INSERT INTO notifications (user_id, actor_id, type, post_id)
        VALUES ($1, $2, $3, $4) `+conflict+`
        RETURNING id, user_id, actor_id, type, post_id, is_read, created_at`,
		n.UserID, n.ActorID, n.Type, n.PostID).StructScan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert %s notification: %w", n.Type, err)
	}
	return &out, nil
}
