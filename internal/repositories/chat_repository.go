package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a chat participant")
)

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateGroupChat(ctx context.Context, name string, participantIDs []string) (models.Chat, error)
	CreateOrGetDirectChat(ctx context.Context, userID string, otherID string) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID string) (bool, error)
	ListParticipants(ctx context.Context, chatID int) ([]string, error)
	ListChats(ctx context.Context, userID string) ([]models.ChatListRow, error)
	CountUnreadMessages(ctx context.Context, userID string) (int, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// DirectKey identifies a direct chat by its unordered participant pair.
func DirectKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// CreateGroupChat creates a group chat and its participants atomically.
func (r *ChatRepo) CreateGroupChat(ctx context.Context, name string, participantIDs []string) (models.Chat, error) {
	var chat models.Chat
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `INSERT INTO chats (name, is_group_chat) VALUES ($1, TRUE) RETURNING id, name, is_group_chat, created_at`, name).
			StructScan(&chat); err != nil {
			return fmt.Errorf("insert group chat: %w", err)
		}
		return addParticipants(ctx, tx, chat.ID, participantIDs)
	})
	if err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// CreateOrGetDirectChat returns the direct chat between two users, creating it
// when absent. The boolean reports whether this call created the chat.
func (r *ChatRepo) CreateOrGetDirectChat(ctx context.Context, userID string, otherID string) (models.Chat, bool, error) {
	if userID == otherID {
		return models.Chat{}, false, errors.New("cannot create chat with self")
	}
	key := DirectKey(userID, otherID)

	var (
		chat    models.Chat
		created bool
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Concurrent creators block on the unique key and fall through to the lookup.
		err := tx.QueryRowxContext(ctx, `INSERT INTO chats (name, is_group_chat, direct_key) VALUES (NULL, FALSE, $1)
            ON CONFLICT (direct_key) DO NOTHING
            RETURNING id, name, is_group_chat, created_at`, key).StructScan(&chat)
		switch {
		case err == nil:
			created = true
			return addParticipants(ctx, tx, chat.ID, []string{userID, otherID})
		case errors.Is(err, sql.ErrNoRows):
			return tx.GetContext(ctx, &chat, `SELECT id, name, is_group_chat, created_at FROM chats WHERE direct_key=$1`, key)
		default:
			return fmt.Errorf("insert direct chat: %w", err)
		}
	})
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, created, nil
}

func addParticipants(ctx context.Context, tx *sqlx.Tx, chatID int, userIDs []string) error {
	for _, id := range userIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, chatID, id); err != nil {
			return fmt.Errorf("add participant %s: %w", id, err)
		}
	}
	return nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, name, is_group_chat, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// ListParticipants returns every participant of the chat.
func (r *ChatRepo) ListParticipants(ctx context.Context, chatID int) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM chat_participants WHERE chat_id=$1 ORDER BY user_id`, chatID)
	return ids, err
}

// ListChats returns the user's chats with their last message, read flag and
// unread count. ParticipantIDs holds the other participants only.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatListRow, error) {
	query := `SELECT c.id AS chat_id, c.name, c.is_group_chat, c.created_at,
            lm.id AS last_message_id, lm.sender_id AS last_sender_id,
            lm.content AS last_content, lm.created_at AS last_created_at,
            CASE WHEN lm.id IS NULL THEN TRUE
                 ELSE EXISTS(SELECT 1 FROM message_reads mr WHERE mr.message_id = lm.id AND mr.user_id = $1)
            END AS last_read_by_user,
            (SELECT COUNT(*) FROM messages m
                WHERE m.chat_id = c.id
                AND NOT EXISTS(SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.user_id = $1)
            ) AS unread_count
        FROM chats c
        INNER JOIN chat_participants cp ON cp.chat_id = c.id AND cp.user_id = $1
        LEFT JOIN LATERAL (
            SELECT id, sender_id, content, created_at FROM messages
            WHERE chat_id = c.id ORDER BY created_at DESC, id DESC LIMIT 1
        ) lm ON TRUE
        ORDER BY c.id`
	var rows []models.ChatListRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	var pairs []struct {
		ChatID int    `db:"chat_id"`
		UserID string `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &pairs, `SELECT cp.chat_id, cp.user_id FROM chat_participants cp
        WHERE cp.chat_id IN (SELECT chat_id FROM chat_participants WHERE user_id = $1)
        AND cp.user_id <> $1
        ORDER BY cp.chat_id, cp.user_id`, userID); err != nil {
		return nil, err
	}
	others := make(map[int][]string, len(rows))
	for _, p := range pairs {
		others[p.ChatID] = append(others[p.ChatID], p.UserID)
	}
	for i := range rows {
		rows[i].ParticipantIDs = others[rows[i].ChatID]
	}
	return rows, nil
}

// CountUnreadMessages counts messages across the user's chats that the user has not read.
func (r *ChatRepo) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages m
        INNER JOIN chat_participants cp ON cp.chat_id = m.chat_id AND cp.user_id = $1
        WHERE NOT EXISTS(SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.user_id = $1)`, userID)
	return count, err
}
