package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pitchey-api/internal/models"
)

const messageColumns = `m.id, m.conversation_id, m.sender_id, m.content, m.message_type, m.created_at, m.is_deleted, m.deleted_at`

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error)
	ListRecent(ctx context.Context, conversationID int, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkRead(ctx context.Context, messageID int, userID int) error
	SoftDelete(ctx context.Context, messageID int, senderID int) (int, bool, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and bumps the conversation's activity timestamps.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	err = tx.GetContext(ctx, &msg, `INSERT INTO messages (conversation_id, sender_id, content, message_type)
        VALUES ($1, $2, $3, $4)
        RETURNING id, conversation_id, sender_id, content, message_type, created_at, is_deleted, deleted_at`,
		conversationID, senderID, content, messageType)
	if err != nil {
		return models.Message{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET last_message_at=$2, updated_at=$2 WHERE id=$1`,
		conversationID, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListRecent returns up to limit of the newest non-deleted messages, oldest first.
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID int, limit int) ([]models.Message, error) {
	query := `SELECT * FROM (
            SELECT ` + messageColumns + `, COALESCE(NULLIF(u.display_name, ''), u.username) AS sender_name
            FROM messages m
            JOIN users u ON u.id = m.sender_id
            WHERE m.conversation_id=$1 AND m.is_deleted = FALSE
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID, limit); err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetMessage retrieves a single message, including soft-deleted ones.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages m WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRead records a read receipt for a participant. Repeat calls and
// messages outside the user's conversations are ignored.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_read_receipts (message_id, user_id)
        SELECT m.id, $2 FROM messages m
        JOIN conversation_participants cp ON cp.conversation_id = m.conversation_id AND cp.user_id = $2
        WHERE m.id = $1
        ON CONFLICT (message_id, user_id) DO NOTHING`, messageID, userID)
	return err
}

// SoftDelete flags a message deleted when senderID authored it. It returns
// the message's conversation id and whether a row was changed.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int, senderID int) (int, bool, error) {
	var conversationID int
	err := r.db.GetContext(ctx, &conversationID, `UPDATE messages SET is_deleted = TRUE, deleted_at = NOW()
        WHERE id=$1 AND sender_id=$2 AND is_deleted = FALSE
        RETURNING conversation_id`, messageID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return conversationID, true, nil
}
