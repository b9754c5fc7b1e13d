package models

import (
	"database/sql"
	"time"
)

// Conversation is a message thread between participants.
type Conversation struct {
	ID            int           `db:"id" json:"id"`
	IsGroup       bool          `db:"is_group" json:"isGroup"`
	CreatedByID   int           `db:"created_by_id" json:"createdById"`
	PitchID       sql.NullInt64 `db:"pitch_id" json:"-"`
	LastMessageAt sql.NullTime  `db:"last_message_at" json:"-"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// ConversationParticipant joins a user to a conversation.
type ConversationParticipant struct {
	ConversationID int       `db:"conversation_id" json:"conversationId"`
	UserID         int       `db:"user_id" json:"userId"`
	JoinedAt       time.Time `db:"joined_at" json:"joinedAt"`
}

// ConversationSummary is a conversation row annotated for the list view.
type ConversationSummary struct {
	ID               int            `db:"id"`
	IsGroup          bool           `db:"is_group"`
	PitchID          sql.NullInt64  `db:"pitch_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	LastMessage      sql.NullString `db:"last_message"`
	LastMessageTime  sql.NullTime   `db:"last_message_time"`
	ParticipantCount int            `db:"participant_count"`
	ParticipantID    sql.NullInt64  `db:"participant_id"`
	ParticipantName  sql.NullString `db:"participant_name"`
	ParticipantType  sql.NullString `db:"participant_type"`
	UnreadCount      int            `db:"unread_count"`
}
