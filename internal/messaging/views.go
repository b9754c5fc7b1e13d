package messaging

import (
	"time"

	"pitchey-api/internal/models"
)

// ConversationView is one entry of the conversation list.
type ConversationView struct {
	ID               int        `json:"id"`
	IsGroup          bool       `json:"is_group"`
	PitchID          *int64     `json:"pitch_id"`
	LastMessage      *string    `json:"last_message"`
	LastMessageTime  *time.Time `json:"last_message_time"`
	ParticipantCount int        `json:"participant_count"`
	ParticipantID    *int       `json:"participant_id,omitempty"`
	ParticipantName  *string    `json:"participant_name"`
	ParticipantType  *string    `json:"participant_type"`
	UnreadCount      int        `json:"unread_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ConversationDetailView is the conversation header of a detail response.
type ConversationDetailView struct {
	ID            int        `json:"id"`
	IsGroup       bool       `json:"is_group"`
	CreatedByID   int        `json:"created_by_id"`
	PitchID       *int64     `json:"pitch_id"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ConversationDetail pairs a conversation with its recent messages.
type ConversationDetail struct {
	Conversation ConversationDetailView `json:"conversation"`
	Messages     []models.Message       `json:"messages"`
}

func summaryView(s models.ConversationSummary) ConversationView {
	v := ConversationView{
		ID:               s.ID,
		IsGroup:          s.IsGroup,
		ParticipantCount: s.ParticipantCount,
		UnreadCount:      s.UnreadCount,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.PitchID.Valid {
		id := s.PitchID.Int64
		v.PitchID = &id
	}
	if s.LastMessage.Valid {
		msg := s.LastMessage.String
		v.LastMessage = &msg
	}
	if s.LastMessageTime.Valid {
		at := s.LastMessageTime.Time
		v.LastMessageTime = &at
	}
	// the other party is only meaningful for two-party threads
	if s.ParticipantCount == 2 && s.ParticipantID.Valid {
		id := int(s.ParticipantID.Int64)
		v.ParticipantID = &id
		if s.ParticipantName.Valid {
			name := s.ParticipantName.String
			v.ParticipantName = &name
		}
		if s.ParticipantType.Valid {
			typ := s.ParticipantType.String
			v.ParticipantType = &typ
		}
	}
	return v
}

func detailView(c models.Conversation) ConversationDetailView {
	v := ConversationDetailView{
		ID:          c.ID,
		IsGroup:     c.IsGroup,
		CreatedByID: c.CreatedByID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.PitchID.Valid {
		id := c.PitchID.Int64
		v.PitchID = &id
	}
	if c.LastMessageAt.Valid {
		at := c.LastMessageAt.Time
		v.LastMessageAt = &at
	}
	return v
}
