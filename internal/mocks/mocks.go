package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pitchey-api/internal/messaging"
	"pitchey-api/internal/models"
	"pitchey-api/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var created models.User
	if val := args.Get(0); val != nil {
		created = val.(models.User)
	}
	return created, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) CreateSession(ctx context.Context, session models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepositoryMock) FindValidSession(ctx context.Context, sessionID string) (models.Session, models.User, error) {
	args := m.Called(ctx, sessionID)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	var user models.User
	if val := args.Get(1); val != nil {
		user = val.(models.User)
	}
	return session, user, args.Error(2)
}

func (m *SessionRepositoryMock) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *SessionRepositoryMock) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindOrCreateDirect(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, bool, error) {
	args := m.Called(ctx, userID, recipientID, pitchID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) GetForParticipant(ctx context.Context, conversationID int, userID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID, userID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListSummaries(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content, messageType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, conversationID int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int, userID int) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID int, senderID int) (int, bool, error) {
	args := m.Called(ctx, messageID, senderID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

type ConversationStoreMock struct {
	mock.Mock
}

func (m *ConversationStoreMock) FindOrCreateConversation(ctx context.Context, userID int, recipientID int, pitchID *int64) (int, error) {
	args := m.Called(ctx, userID, recipientID, pitchID)
	return args.Int(0), args.Error(1)
}

func (m *ConversationStoreMock) SendMessage(ctx context.Context, userID int, in messaging.SendInput) (models.Message, error) {
	args := m.Called(ctx, userID, in)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationStoreMock) GetConversations(ctx context.Context, userID int) []messaging.ConversationView {
	args := m.Called(ctx, userID)
	var list []messaging.ConversationView
	if val := args.Get(0); val != nil {
		list = val.([]messaging.ConversationView)
	}
	return list
}

func (m *ConversationStoreMock) GetConversationByID(ctx context.Context, userID int, conversationID int) (messaging.ConversationDetail, error) {
	args := m.Called(ctx, userID, conversationID)
	var detail messaging.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(messaging.ConversationDetail)
	}
	return detail, args.Error(1)
}

func (m *ConversationStoreMock) GetMessages(ctx context.Context, userID int, conversationID int) []models.Message {
	args := m.Called(ctx, userID, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs
}

func (m *ConversationStoreMock) MarkMessageAsRead(ctx context.Context, userID int, messageID int) error {
	args := m.Called(ctx, userID, messageID)
	return args.Error(0)
}

func (m *ConversationStoreMock) DeleteMessage(ctx context.Context, userID int, messageID int) (messaging.DeleteOutcome, error) {
	args := m.Called(ctx, userID, messageID)
	var outcome messaging.DeleteOutcome
	if val := args.Get(0); val != nil {
		outcome = val.(messaging.DeleteOutcome)
	}
	return outcome, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.SessionRepository = (*SessionRepositoryMock)(nil)
var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ messaging.ConversationStore = (*ConversationStoreMock)(nil)
