package models

import "time"

// Chat is a direct (two participants) or group (three or more) conversation.
type Chat struct {
	ID          int       `db:"id" json:"id"`
	Name        *string   `db:"name" json:"name"`
	IsGroupChat bool      `db:"is_group_chat" json:"isGroupChat"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	Chat
	Participants []Profile `json:"participants"`
	LastMessage  *Message  `json:"lastMessage,omitempty"`
	IsRead       bool      `json:"isRead"`
	UnreadCount  int       `json:"unreadCount"`
}

// FullChat is a chat with its messages as seen by one participant.
type FullChat struct {
	Chat
	Participants []Profile `json:"participants"`
	Messages     []Message `json:"messages"`
}

// ChatListRow is the flat per-chat projection loaded from the database.
type ChatListRow struct {
	ChatID         int        `db:"chat_id"`
	Name           *string    `db:"name"`
	IsGroupChat    bool       `db:"is_group_chat"`
	CreatedAt      time.Time  `db:"created_at"`
	LastMessageID  *int       `db:"last_message_id"`
	LastSenderID   *string    `db:"last_sender_id"`
	LastContent    *string    `db:"last_content"`
	LastCreatedAt  *time.Time `db:"last_created_at"`
	LastReadByUser bool       `db:"last_read_by_user"`
	UnreadCount    int        `db:"unread_count"`
	ParticipantIDs []string   `db:"-"`
}

// ChatEvent is pushed to websocket subscribers of a chat.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	UserID    string   `json:"userId,omitempty"`
	ReadCount int      `json:"readCount,omitempty"`
}
