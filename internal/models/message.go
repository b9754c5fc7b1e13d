package models

import (
	"database/sql"
	"time"
)

// Message types accepted on send.
const (
	MessageTypeText       = "text"
	MessageTypeImage      = "image"
	MessageTypeFile       = "file"
	MessageTypePitchShare = "pitch_share"
	MessageTypeSystem     = "system"
)

// Message is a single message in a conversation.
type Message struct {
	ID             int          `db:"id" json:"id"`
	ConversationID int          `db:"conversation_id" json:"conversationId"`
	SenderID       int          `db:"sender_id" json:"senderId"`
	Content        string       `db:"content" json:"content"`
	MessageType    string       `db:"message_type" json:"messageType"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	IsDeleted      bool         `db:"is_deleted" json:"-"`
	DeletedAt      sql.NullTime `db:"deleted_at" json:"-"`
	SenderName     string       `db:"sender_name" json:"senderName,omitempty"`
}

// ReadReceipt records that a user has read a message.
type ReadReceipt struct {
	MessageID int       `db:"message_id" json:"messageId"`
	UserID    int       `db:"user_id" json:"userId"`
	ReadAt    time.Time `db:"read_at" json:"readAt"`
}

// ConversationEvent is pushed to websocket subscribers of a conversation.
type ConversationEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
}

// ValidMessageType reports whether t may be sent by a client.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypePitchShare, MessageTypeSystem:
		return true
	}
	return false
}
