package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"pitchey-api/internal/models"
	"pitchey-api/internal/repositories"
)

// MemoryRepos is an in-memory stand-in for the user, conversation and
// message repositories, for tests that need real state across calls.
type MemoryRepos struct {
	mu            sync.Mutex
	users         map[int]models.User
	conversations map[int]*models.Conversation
	direct        map[string]int
	participants  map[int][]models.ConversationParticipant
	messages      map[int]*models.Message
	receipts      map[[2]int]models.ReadReceipt
	nextConvID    int
	nextMsgID     int
	clock         time.Time
}

func NewMemoryRepos() *MemoryRepos {
	return &MemoryRepos{
		users:         make(map[int]models.User),
		conversations: make(map[int]*models.Conversation),
		direct:        make(map[string]int),
		participants:  make(map[int][]models.ConversationParticipant),
		messages:      make(map[int]*models.Message),
		receipts:      make(map[[2]int]models.ReadReceipt),
		clock:         time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so rows get strictly increasing timestamps.
func (m *MemoryRepos) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// AddUser seeds a user with a fixed id.
func (m *MemoryRepos) AddUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MemoryRepos) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return models.User{}, repositories.ErrUserExists
		}
	}
	user.ID = len(m.users) + 1
	user.CreatedAt = m.tick()
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryRepos) GetByID(_ context.Context, userID int) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryRepos) GetByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrUserNotFound
}

func (m *MemoryRepos) FindOrCreateDirect(_ context.Context, userID int, recipientID int, pitchID *int64) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repositories.DirectKey(userID, recipientID)
	if id, ok := m.direct[key]; ok {
		return id, false, nil
	}

	m.nextConvID++
	now := m.tick()
	conv := &models.Conversation{ID: m.nextConvID, CreatedByID: userID, CreatedAt: now, UpdatedAt: now}
	if pitchID != nil {
		conv.PitchID = sql.NullInt64{Int64: *pitchID, Valid: true}
	}
	m.conversations[conv.ID] = conv
	m.direct[key] = conv.ID
	m.participants[conv.ID] = []models.ConversationParticipant{
		{ConversationID: conv.ID, UserID: userID, JoinedAt: now},
		{ConversationID: conv.ID, UserID: recipientID, JoinedAt: now},
	}
	return conv.ID, true, nil
}

func (m *MemoryRepos) isParticipant(conversationID, userID int) bool {
	for _, p := range m.participants[conversationID] {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (m *MemoryRepos) IsParticipant(_ context.Context, conversationID int, userID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isParticipant(conversationID, userID), nil
}

func (m *MemoryRepos) GetForParticipant(_ context.Context, conversationID int, userID int) (models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[conversationID]
	if !ok || !m.isParticipant(conversationID, userID) {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return *conv, nil
}

func (m *MemoryRepos) ListSummaries(_ context.Context, userID int) ([]models.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type ranked struct {
		summary  models.ConversationSummary
		activity time.Time
	}
	var list []ranked
	for id, conv := range m.conversations {
		if !m.isParticipant(id, userID) {
			continue
		}
		s := models.ConversationSummary{
			ID:               id,
			IsGroup:          conv.IsGroup,
			PitchID:          conv.PitchID,
			CreatedAt:        conv.CreatedAt,
			UpdatedAt:        conv.UpdatedAt,
			ParticipantCount: len(m.participants[id]),
		}
		for _, p := range m.participants[id] {
			other := p.UserID
			if other == userID {
				continue
			}
			u := m.users[other]
			name := u.DisplayName
			if name == "" {
				name = u.Username
			}
			s.ParticipantID = sql.NullInt64{Int64: int64(other), Valid: true}
			s.ParticipantName = sql.NullString{String: name, Valid: true}
			s.ParticipantType = sql.NullString{String: u.UserType, Valid: true}
			break
		}
		for _, msg := range m.visible(id) {
			s.LastMessage = sql.NullString{String: msg.Content, Valid: true}
			s.LastMessageTime = sql.NullTime{Time: msg.CreatedAt, Valid: true}
			if _, read := m.receipts[[2]int{msg.ID, userID}]; msg.SenderID != userID && !read {
				s.UnreadCount++
			}
		}
		activity := conv.CreatedAt
		if conv.LastMessageAt.Valid {
			activity = conv.LastMessageAt.Time
		} else if !conv.UpdatedAt.IsZero() {
			activity = conv.UpdatedAt
		}
		list = append(list, ranked{summary: s, activity: activity})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].activity.After(list[j].activity) })
	out := make([]models.ConversationSummary, 0, len(list))
	for _, r := range list {
		out = append(out, r.summary)
	}
	return out, nil
}

// visible returns non-deleted messages of a conversation, oldest first.
func (m *MemoryRepos) visible(conversationID int) []models.Message {
	var msgs []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && !msg.IsDeleted {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs
}

func (m *MemoryRepos) CreateMessage(_ context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMsgID++
	now := m.tick()
	msg := &models.Message{
		ID:             m.nextMsgID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		MessageType:    messageType,
		CreatedAt:      now,
	}
	m.messages[msg.ID] = msg
	if conv, ok := m.conversations[conversationID]; ok {
		conv.LastMessageAt = sql.NullTime{Time: now, Valid: true}
		conv.UpdatedAt = now
	}
	return *msg, nil
}

func (m *MemoryRepos) ListRecent(_ context.Context, conversationID int, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.visible(conversationID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (m *MemoryRepos) GetMessage(_ context.Context, messageID int) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return *msg, nil
}

func (m *MemoryRepos) MarkRead(_ context.Context, messageID int, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || !m.isParticipant(msg.ConversationID, userID) {
		return nil
	}
	key := [2]int{messageID, userID}
	if _, exists := m.receipts[key]; !exists {
		m.receipts[key] = models.ReadReceipt{MessageID: messageID, UserID: userID, ReadAt: m.tick()}
	}
	return nil
}

// Receipt returns the read receipt of userID for a message, if any.
func (m *MemoryRepos) Receipt(messageID, userID int) (models.ReadReceipt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[[2]int{messageID, userID}]
	return r, ok
}

// ReadCount reports how many receipts exist for a message.
func (m *MemoryRepos) ReadCount(messageID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.receipts {
		if key[0] == messageID {
			n++
		}
	}
	return n
}

func (m *MemoryRepos) SoftDelete(_ context.Context, messageID int, senderID int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.SenderID != senderID || msg.IsDeleted {
		return 0, false, nil
	}
	msg.IsDeleted = true
	msg.DeletedAt = sql.NullTime{Time: m.tick(), Valid: true}
	return msg.ConversationID, true, nil
}

var _ repositories.UserRepository = (*MemoryRepos)(nil)
var _ repositories.ConversationRepository = (*MemoryRepos)(nil)
var _ repositories.MessageRepository = (*MemoryRepos)(nil)
