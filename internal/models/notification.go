package models

import "time"

type NotificationType string

const (
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
)

// Notification is addressed to UserID and caused by ActorID.
type Notification struct {
	ID        int              `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	ActorID   string           `db:"actor_id" json:"actorId"`
	Type      NotificationType `db:"type" json:"type"`
	PostID    *int             `db:"post_id" json:"postId,omitempty"`
	IsRead    bool             `db:"is_read" json:"isRead"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationView carries the actor profile for rendering.
type NotificationView struct {
	Notification
	Actor Profile `json:"actor"`
}

// Follow is a directed edge in the follow graph.
type Follow struct {
	FollowerID  string    `db:"follower_id" json:"followerId"`
	FollowingID string    `db:"following_id" json:"followingId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
