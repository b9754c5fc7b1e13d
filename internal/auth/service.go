package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pitchey-api/internal/models"
	"pitchey-api/internal/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid registration input")
	ErrEmailTaken         = errors.New("email or username already registered")
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	UserType    string
	DisplayName string
}

// LoginResult carries the new session and a bearer token for API clients.
type LoginResult struct {
	User    models.User
	Session models.Session
	Token   string
}

// Service implements registration, login and logout.
type Service struct {
	users      repositories.UserRepository
	sessions   *SessionStore
	tokens     *TokenIssuer
	sessionTTL time.Duration
}

func NewService(users repositories.UserRepository, sessions *SessionStore, tokens *TokenIssuer, sessionTTL time.Duration) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, sessionTTL: sessionTTL}
}

// Register creates a user. The user type is fixed from here on.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.User{}, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if in.Username == "" {
		return models.User{}, fmt.Errorf("%w: username", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if !models.ValidUserType(in.UserType) {
		return models.User{}, fmt.Errorf("%w: user type", ErrInvalidInput)
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Email:        in.Email,
		Username:     in.Username,
		UserType:     in.UserType,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
	})
	if errors.Is(err, repositories.ErrUserExists) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{User: user, Session: session, Token: token}, nil
}

// Logout revokes the session, if any.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, sessionID)
}
