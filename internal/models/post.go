package models

import "time"

// Post is an entry in the feed.
type Post struct {
	ID        int        `db:"id" json:"id"`
	AuthorID  string     `db:"author_id" json:"authorId"`
	Content   string     `db:"content" json:"content"`
	ImageKey  *string    `db:"image_key" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`

	LikeCount    int  `db:"like_count" json:"likeCount"`
	CommentCount int  `db:"comment_count" json:"commentCount"`
	LikedByMe    bool `db:"liked_by_me" json:"likedByMe"`
}

// PostView is a post joined with its author and a readable image URL.
type PostView struct {
	Post     Post    `json:"post"`
	Author   Profile `json:"author"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Comment belongs to a post and its author.
type Comment struct {
	ID        int        `db:"id" json:"id"`
	PostID    int        `db:"post_id" json:"postId"`
	UserID    string     `db:"user_id" json:"userId"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// CommentView is a comment with its author profile.
type CommentView struct {
	Comment
	Author Profile `json:"author"`
}

// LikeState is the outcome of a like mutation.
type LikeState struct {
	PostID    int  `db:"post_id" json:"postId"`
	Liked     bool `db:"liked" json:"liked"`
	LikeCount int  `db:"like_count" json:"likeCount"`
	// Created is true only when this call inserted the like row.
	Created bool `db:"-" json:"-"`
}
