// Package messaging implements conversations between users: finding or
// creating direct threads, sending, reading and soft-deleting messages.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"pitchey-api/internal/models"
	"pitchey-api/internal/observability"
	"pitchey-api/internal/repositories"
)

// MessageLimit caps the messages returned with a conversation.
const MessageLimit = 50

// MaxContentLength bounds a single message body, in characters.
const MaxContentLength = 10000

// SendInput addresses a message either to a conversation or to a recipient.
type SendInput struct {
	ConversationID int
	RecipientID    int
	PitchID        *int64
	Content        string
	MessageType    string
}

// DeleteOutcome reports what a delete call changed. Deleted is false both
// for unknown messages and for messages the caller did not send.
type DeleteOutcome struct {
	ConversationID int
	Deleted        bool
}

// ConversationStore is the messaging API consumed by the HTTP layer.
type ConversationStore interface {
	FindOrCreateConversation(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, error)
	SendMessage(ctx context.Context, userID int, in SendInput) (models.Message, error)
	GetConversations(ctx context.Context, userID int) []ConversationView
	GetConversationByID(ctx context.Context, userID int, conversationID int) (ConversationDetail, error)
	GetMessages(ctx context.Context, userID int, conversationID int) []models.Message
	MarkMessageAsRead(ctx context.Context, userID int, messageID int) error
	DeleteMessage(ctx context.Context, userID int, messageID int) (DeleteOutcome, error)
}

// Store implements ConversationStore over the repositories.
type Store struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         repositories.UserRepository
}

// NewStore builds a Store.
func NewStore(conversations repositories.ConversationRepository, messages repositories.MessageRepository, users repositories.UserRepository) *Store {
	return &Store{conversations: conversations, messages: messages, users: users}
}

func (s *Store) FindOrCreateConversation(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, error) {
	if recipientID <= 0 || recipientID == userID {
		return 0, ErrInvalidRecipient
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, fmt.Errorf("recipient %d: %w", recipientID, ErrNotFound)
		}
		return 0, fmt.Errorf("load recipient: %w: %v", ErrInternal, err)
	}

	id, created, err := s.conversations.FindOrCreateDirect(ctx, userID, recipientID, pitchID)
	if err != nil {
		return 0, fmt.Errorf("find or create conversation: %w: %v", ErrInternal, err)
	}
	if created {
		log.Info("conversation created", "conversation_id", id, "user_id", userID, "recipient_id", recipientID)
	}
	return id, nil
}

func (s *Store) SendMessage(ctx context.Context, userID int, in SendInput) (models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Message{}, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return models.Message{}, fmt.Errorf("%w: content exceeds %d characters", ErrValidation, MaxContentLength)
	}
	messageType := in.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !models.ValidMessageType(messageType) {
		return models.Message{}, fmt.Errorf("%w: unknown message type %q", ErrValidation, messageType)
	}

	conversationID := in.ConversationID
	switch {
	case conversationID > 0:
		member, err := s.conversations.IsParticipant(ctx, conversationID, userID)
		if err != nil {
			return models.Message{}, fmt.Errorf("check participant: %w: %v", ErrInternal, err)
		}
		if !member {
			return models.Message{}, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
		}
	case in.RecipientID != 0:
		id, err := s.FindOrCreateConversation(ctx, userID, in.RecipientID, in.PitchID)
		if err != nil {
			return models.Message{}, err
		}
		conversationID = id
	default:
		return models.Message{}, fmt.Errorf("%w: conversation_id or recipient_id is required", ErrValidation)
	}

	msg, err := s.messages.CreateMessage(ctx, conversationID, userID, content, messageType)
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w: %v", ErrInternal, err)
	}
	return msg, nil
}

// GetConversations lists the user's conversations. A database failure yields
// an empty list.
func (s *Store) GetConversations(ctx context.Context, userID int) []ConversationView {
	summaries, err := s.conversations.ListSummaries(ctx, userID)
	if err != nil {
		log.Error("list conversations failed", "user_id", userID, "error", err)
		observability.IncReadDegraded("get_conversations")
		return []ConversationView{}
	}

	views := make([]ConversationView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, summaryView(summary))
	}
	return views
}

func (s *Store) GetConversationByID(ctx context.Context, userID int, conversationID int) (ConversationDetail, error) {
	conv, err := s.conversations.GetForParticipant(ctx, conversationID, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrConversationNotFound) {
			log.Error("load conversation failed", "conversation_id", conversationID, "error", err)
		}
		return ConversationDetail{}, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
	}

	msgs, err := s.messages.ListRecent(ctx, conversationID, MessageLimit)
	if err != nil {
		log.Error("list messages failed", "conversation_id", conversationID, "error", err)
		observability.IncReadDegraded("get_conversation_messages")
		msgs = []models.Message{}
	}
	return ConversationDetail{Conversation: detailView(conv), Messages: msgs}, nil
}

// GetMessages returns the conversation's recent messages, or an empty list
// when the user is not a participant or the database fails.
func (s *Store) GetMessages(ctx context.Context, userID int, conversationID int) []models.Message {
	member, err := s.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		log.Error("check participant failed", "conversation_id", conversationID, "error", err)
		observability.IncReadDegraded("get_messages")
		return []models.Message{}
	}
	if !member {
		return []models.Message{}
	}

	msgs, err := s.messages.ListRecent(ctx, conversationID, MessageLimit)
	if err != nil {
		log.Error("list messages failed", "conversation_id", conversationID, "error", err)
		observability.IncReadDegraded("get_messages")
		return []models.Message{}
	}
	return msgs
}

func (s *Store) MarkMessageAsRead(ctx context.Context, userID int, messageID int) error {
	if messageID <= 0 {
		return fmt.Errorf("%w: message id", ErrValidation)
	}
	if err := s.messages.MarkRead(ctx, messageID, userID); err != nil {
		return fmt.Errorf("mark read: %w: %v", ErrInternal, err)
	}
	return nil
}

// DeleteMessage soft-deletes a message the user sent. Deleting someone
// else's message, or an unknown one, changes nothing and is not an error.
func (s *Store) DeleteMessage(ctx context.Context, userID int, messageID int) (DeleteOutcome, error) {
	if messageID <= 0 {
		return DeleteOutcome{}, fmt.Errorf("%w: message id", ErrValidation)
	}
	conversationID, deleted, err := s.messages.SoftDelete(ctx, messageID, userID)
	if err != nil {
		return DeleteOutcome{}, fmt.Errorf("delete message: %w: %v", ErrInternal, err)
	}
	if !deleted {
		log.Debug("delete matched no message", "message_id", messageID, "user_id", userID)
	}
	return DeleteOutcome{ConversationID: conversationID, Deleted: deleted}, nil
}
