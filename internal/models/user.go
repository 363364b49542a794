package models

import "time"

// User is the local mirror of an identity-provider profile.
type User struct {
	ID          string    `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"displayName"`
	AvatarURL   string    `db:"avatar_url" json:"profileImageUrl"`
	Email       string    `db:"email" json:"-"`
	SyncedAt    time.Time `db:"synced_at" json:"-"`
}

// Profile is the public projection of a User.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"profileImageUrl,omitempty"`
}

// Public strips private fields.
func (u User) Public() Profile {
	return Profile{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

// FollowCounts summarizes the follow graph around one user.
type FollowCounts struct {
	Followers int `db:"followers" json:"followers"`
	Following int `db:"following" json:"following"`
}
