package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bee-social/internal/models"
)

// MessageRepository defines interactions for chat messages and read receipts.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID string, content string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	MarkChatRead(ctx context.Context, chatID int, userID string) (int, error)
	ReadChat(ctx context.Context, chatID int, userID string) ([]models.Message, int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and the sender's own read receipt in one
// transaction. It fails with ErrNotParticipant when the sender is not in the chat.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID string, content string) (models.Message, error) {
	var msg models.Message
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, content)
            SELECT $1, $2, $3
            WHERE EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)
            RETURNING id, chat_id, sender_id, content, created_at`, chatID, senderID, content).StructScan(&msg)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotParticipant
		}
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2)`, msg.ID, senderID); err != nil {
			return fmt.Errorf("insert sender receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	msg.ReadBy = []string{senderID}
	return msg, nil
}

// ListMessages returns the chat's messages in send order with read-by sets.
// It does not change read state.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	return listMessages(ctx, r.db, chatID)
}

// MarkChatRead adds userID to the read-by set of every message in the chat and
// returns how many receipts were new.
func (r *MessageRepo) MarkChatRead(ctx context.Context, chatID int, userID string) (int, error) {
	return markChatRead(ctx, r.db, chatID, userID)
}

// ReadChat marks the chat read for userID and returns the resulting messages,
// both inside one transaction.
func (r *MessageRepo) ReadChat(ctx context.Context, chatID int, userID string) ([]models.Message, int, error) {
	var (
		msgs   []models.Message
		marked int
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if marked, err = markChatRead(ctx, tx, chatID, userID); err != nil {
			return err
		}
		msgs, err = listMessages(ctx, tx, chatID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return msgs, marked, nil
}

func markChatRead(ctx context.Context, exec sqlx.ExecerContext, chatID int, userID string) (int, error) {
	res, err := exec.ExecContext(ctx, `INSERT INTO message_reads (message_id, user_id)
        SELECT m.id, $2 FROM messages m WHERE m.chat_id = $1
        ON CONFLICT (message_id, user_id) DO NOTHING`, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark chat read: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func listMessages(ctx context.Context, q sqlx.QueryerContext, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	if err := sqlx.SelectContext(ctx, q, &msgs, `SELECT id, chat_id, sender_id, content, created_at
        FROM messages WHERE chat_id=$1 ORDER BY created_at ASC, id ASC`, chatID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var reads []models.MessageRead
	if err := sqlx.SelectContext(ctx, q, &reads, `SELECT mr.message_id, mr.user_id, mr.read_at
        FROM message_reads mr INNER JOIN messages m ON m.id = mr.message_id
        WHERE m.chat_id=$1 ORDER BY mr.read_at ASC, mr.user_id ASC`, chatID); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	readBy := make(map[int][]string, len(msgs))
	for _, rd := range reads {
		readBy[rd.MessageID] = append(readBy[rd.MessageID], rd.UserID)
	}
	for i := range msgs {
		msgs[i].ReadBy = readBy[msgs[i].ID]
		if msgs[i].ReadBy == nil {
			msgs[i].ReadBy = []string{}
		}
	}
	return msgs, nil
}
