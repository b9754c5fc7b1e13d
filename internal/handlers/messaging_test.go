package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pitchey-api/internal/messaging"
	"pitchey-api/internal/mocks"
	"pitchey-api/internal/models"
	"pitchey-api/internal/ws"
)

func setupMessagingRouter(handler *MessagingHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler.Register(api)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestSendMessageSuccess(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, ws.NewHub(nil), nil), 7)

	store.On("SendMessage", mock.Anything, 7, messaging.SendInput{RecipientID: 9, Content: "Hello"}).
		Return(models.Message{ID: 1, ConversationID: 3, SenderID: 7, Content: "Hello", MessageType: "text"}, nil).Once()

	rec, env := doJSON(t, router, http.MethodPost, "/api/messages", `{"recipient_id":9,"content":"Hello"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	var data struct {
		Message        models.Message `json:"message"`
		ConversationID int            `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.ConversationID)
	assert.Equal(t, "Hello", data.Message.Content)
	store.AssertExpectations(t)
}

func TestSendMessageErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		text   string
	}{
		{fmt.Errorf("%w: content is required", messaging.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR", "content is required"},
		{messaging.ErrInvalidRecipient, http.StatusBadRequest, "INVALID_RECIPIENT", "Invalid recipient"},
		{fmt.Errorf("conversation 4: %w", messaging.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "Conversation not found"},
		{fmt.Errorf("store message: %w: boom", messaging.ErrInternal), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			store := new(mocks.ConversationStoreMock)
			router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 7)
			store.On("SendMessage", mock.Anything, 7, mock.Anything).Return(nil, tc.err).Once()

			rec, env := doJSON(t, router, http.MethodPost, "/api/messages", `{"conversation_id":4,"content":"x"}`)

			require.Equal(t, tc.status, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.Code)
			assert.Equal(t, tc.text, env.Error)
		})
	}
}

func TestSendMessageMalformedBody(t *testing.T) {
	router := setupMessagingRouter(NewMessagingHandler(new(mocks.ConversationStoreMock), nil, nil), 7)

	rec, env := doJSON(t, router, http.MethodPost, "/api/messages", `{"content":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestGetMessagesRequiresConversationID(t *testing.T) {
	router := setupMessagingRouter(NewMessagingHandler(new(mocks.ConversationStoreMock), nil, nil), 7)

	rec, env := doJSON(t, router, http.MethodGet, "/api/messages", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestGetMessagesEmptyListNotNull(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 7)
	store.On("GetMessages", mock.Anything, 7, 4).Return(nil).Once()

	rec, env := doJSON(t, router, http.MethodGet, "/api/messages?conversation_id=4", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, string(env.Data))
}

func TestListConversations(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 7)
	name, last := "Nine", "Hello"
	store.On("GetConversations", mock.Anything, 7).
		Return([]messaging.ConversationView{{ID: 3, ParticipantCount: 2, ParticipantName: &name, LastMessage: &last}}).Once()

	rec, env := doJSON(t, router, http.MethodGet, "/api/conversations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Conversations []map[string]any `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Conversations, 1)
	assert.Equal(t, "Nine", data.Conversations[0]["participant_name"])
	assert.Equal(t, "Hello", data.Conversations[0]["last_message"])
}

func TestStartConversation(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 7)
	pitch := int64(55)
	store.On("FindOrCreateConversation", mock.Anything, 7, 9, &pitch).Return(12, nil).Once()

	rec, env := doJSON(t, router, http.MethodPost, "/api/conversations", `{"recipient_id":9,"pitch_id":55}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conversationId":12}`, string(env.Data))
	store.AssertExpectations(t)
}

func TestGetConversationNotFound(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 7)
	store.On("GetConversationByID", mock.Anything, 7, 99).Return(nil, messaging.ErrNotFound).Once()

	rec, env := doJSON(t, router, http.MethodGet, "/api/conversations/99", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation not found", env.Error)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestGetConversationInvalidID(t *testing.T) {
	router := setupMessagingRouter(NewMessagingHandler(new(mocks.ConversationStoreMock), nil, nil), 7)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/conversations/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkRead(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, nil, nil), 9)
	store.On("MarkMessageAsRead", mock.Anything, 9, 5).Return(nil).Once()

	rec, env := doJSON(t, router, http.MethodPost, "/api/messages/5/read", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	store.AssertExpectations(t)
}

func TestDeleteForeignMessageStillSucceeds(t *testing.T) {
	store := new(mocks.ConversationStoreMock)
	router := setupMessagingRouter(NewMessagingHandler(store, ws.NewHub(nil), nil), 7)
	store.On("DeleteMessage", mock.Anything, 7, 5).Return(messaging.DeleteOutcome{}, nil).Once()

	rec, env := doJSON(t, router, http.MethodDelete, "/api/messages/5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

// Runs the facade over the real store and in-memory repositories.
func TestMessagingFlowEndToEnd(t *testing.T) {
	repos := mocks.NewMemoryRepos()
	repos.AddUser(models.User{ID: 7, Username: "seven", DisplayName: "Seven", UserType: models.UserTypeCreator})
	repos.AddUser(models.User{ID: 9, Username: "nine", DisplayName: "Nine", UserType: models.UserTypeInvestor})
	handler := NewMessagingHandler(messaging.NewStore(repos, repos, repos), ws.NewHub(nil), nil)
	asSeven := setupMessagingRouter(handler, 7)
	asNine := setupMessagingRouter(handler, 9)

	rec, env := doJSON(t, asSeven, http.MethodPost, "/api/messages", `{"recipient_id":9,"content":"Hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sent struct {
		Message        models.Message `json:"message"`
		ConversationID int            `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))

	_, env = doJSON(t, asSeven, http.MethodGet, "/api/conversations", "")
	var list struct {
		Conversations []messaging.ConversationView `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Conversations, 1)
	require.NotNil(t, list.Conversations[0].ParticipantName)
	assert.Equal(t, "Nine", *list.Conversations[0].ParticipantName)
	assert.Equal(t, "Hello", *list.Conversations[0].LastMessage)

	// a recipient deleting the sender's message changes nothing
	rec, _ = doJSON(t, asNine, http.MethodDelete, fmt.Sprintf("/api/messages/%d", sent.Message.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, asNine, http.MethodGet, fmt.Sprintf("/api/conversations/%d", sent.ConversationID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.Messages, 1)

	rec, _ = doJSON(t, asSeven, http.MethodDelete, fmt.Sprintf("/api/messages/%d", sent.Message.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = doJSON(t, asNine, http.MethodGet, fmt.Sprintf("/api/messages?conversation_id=%d", sent.ConversationID), "")
	assert.JSONEq(t, `{"messages":[]}`, string(env.Data))
}
