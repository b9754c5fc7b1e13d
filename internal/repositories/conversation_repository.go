package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pitchey-api/internal/models"
)

const conversationColumns = `c.id, c.is_group, c.created_by_id, c.pitch_id, c.last_message_at, c.created_at, c.updated_at`

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	FindOrCreateDirect(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, bool, error)
	IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error)
	GetForParticipant(ctx context.Context, conversationID int, userID int) (models.Conversation, error)
	ListSummaries(ctx context.Context, userID int) ([]models.ConversationSummary, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// DirectKey normalises an unordered pair of user ids.
func DirectKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// FindOrCreateDirect returns the direct conversation between two users,
// creating it with both participants if none exists. The boolean reports
// whether this call created it.
func (r *ConversationRepo) FindOrCreateDirect(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, bool, error) {
	if userID == recipientID {
		return 0, false, errors.New("cannot create conversation with self")
	}
	key := DirectKey(userID, recipientID)

	var id int
	err := r.db.GetContext(ctx, &id, `SELECT id FROM conversations WHERE direct_key=$1 AND is_group = FALSE`, key)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	created := true
	err = tx.GetContext(ctx, &id, `INSERT INTO conversations (is_group, created_by_id, pitch_id, direct_key)
        VALUES (FALSE, $1, $2, $3)
        ON CONFLICT (direct_key) DO NOTHING
        RETURNING id`, userID, pitchID, key)
	if errors.Is(err, sql.ErrNoRows) {
		// a concurrent request created the pair first
		created = false
		err = tx.GetContext(ctx, &id, `SELECT id FROM conversations WHERE direct_key=$1`, key)
	}
	if err != nil {
		return 0, false, err
	}

	if created {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id)
            VALUES ($1, $2), ($1, $3) ON CONFLICT DO NOTHING`, id, userID, recipientID); err != nil {
			return 0, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// IsParticipant checks whether a user belongs to the conversation.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	return exists, err
}

// GetForParticipant fetches a conversation only if userID participates in it.
func (r *ConversationRepo) GetForParticipant(ctx context.Context, conversationID int, userID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id=$2
        WHERE c.id=$1`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListSummaries returns every conversation the user participates in, most recent first.
func (r *ConversationRepo) ListSummaries(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.is_group, c.pitch_id, c.created_at, c.updated_at,
            (SELECT m.content FROM messages m
                WHERE m.conversation_id = c.id AND m.is_deleted = FALSE
                ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message,
            (SELECT m.created_at FROM messages m
                WHERE m.conversation_id = c.id AND m.is_deleted = FALSE
                ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message_time,
            (SELECT COUNT(*) FROM conversation_participants pc WHERE pc.conversation_id = c.id) AS participant_count,
            other.id AS participant_id,
            other.display_name AS participant_name,
            other.user_type AS participant_type,
            (SELECT COUNT(*) FROM messages m
                LEFT JOIN message_read_receipts rr ON rr.message_id = m.id AND rr.user_id = $1
                WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.is_deleted = FALSE AND rr.message_id IS NULL) AS unread_count
        FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
        LEFT JOIN LATERAL (
            SELECT u.id, COALESCE(NULLIF(u.display_name, ''), u.username) AS display_name, u.user_type
            FROM conversation_participants op
            JOIN users u ON u.id = op.user_id
            WHERE op.conversation_id = c.id AND op.user_id <> $1
            LIMIT 1
        ) other ON TRUE
        ORDER BY COALESCE(c.last_message_at, c.updated_at, c.created_at) DESC`

	var summaries []models.ConversationSummary
	if err := r.db.SelectContext(ctx, &summaries, query, userID); err != nil {
		return nil, err
	}
	return summaries, nil
}
