package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"pitchey-api/internal/repositories"
)

// CookieSessionStrategy reads the configured session cookies and resolves
// them through the cache, then the database.
type CookieSessionStrategy struct {
	cookies  CookieConfig
	sessions *SessionStore
}

func NewCookieSessionStrategy(cookies CookieConfig, sessions *SessionStore) *CookieSessionStrategy {
	return &CookieSessionStrategy{cookies: cookies, sessions: sessions}
}

func (s *CookieSessionStrategy) Name() string { return "cookie_session" }

func (s *CookieSessionStrategy) Resolve(ctx context.Context, r *http.Request) (*Identity, error) {
	var lastErr error
	// a stale primary cookie must not hide a live legacy one
	for _, sessionID := range s.cookies.SessionIDsFromRequest(r) {
		identity, err := s.sessions.Lookup(ctx, sessionID, true)
		if err != nil {
			lastErr = err
			continue
		}
		if identity != nil {
			return identity, nil
		}
	}
	return nil, lastErr
}

// SessionAPIStrategy re-parses the cookie header for session tokens the
// primary strategy does not know by name, such as prefixed variants like
// "__Secure-better-auth.session_token". It always reads the database.
type SessionAPIStrategy struct {
	cookies  CookieConfig
	sessions *SessionStore
}

func NewSessionAPIStrategy(cookies CookieConfig, sessions *SessionStore) *SessionAPIStrategy {
	return &SessionAPIStrategy{cookies: cookies, sessions: sessions}
}

func (s *SessionAPIStrategy) Name() string { return "session_api" }

func (s *SessionAPIStrategy) Resolve(ctx context.Context, r *http.Request) (*Identity, error) {
	var lastErr error
	for _, cookie := range r.Cookies() {
		if s.cookies.known(cookie.Name) || !looksLikeSessionCookie(cookie.Name) {
			continue
		}
		sessionID, ok := s.cookies.Verify(cookie.Value)
		if !ok {
			continue
		}
		identity, err := s.sessions.Lookup(ctx, sessionID, false)
		if err != nil {
			lastErr = err
			continue
		}
		if identity != nil {
			return identity, nil
		}
	}
	return nil, lastErr
}

func looksLikeSessionCookie(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, "session_token") ||
		strings.HasSuffix(name, "-session") ||
		strings.HasSuffix(name, "_session")
}

// BearerJWTStrategy validates an Authorization bearer token and re-reads the
// user it points at from the database.
type BearerJWTStrategy struct {
	tokens *TokenIssuer
	users  repositories.UserRepository
}

func NewBearerJWTStrategy(tokens *TokenIssuer, users repositories.UserRepository) *BearerJWTStrategy {
	return &BearerJWTStrategy{tokens: tokens, users: users}
}

func (s *BearerJWTStrategy) Name() string { return "bearer_jwt" }

func (s *BearerJWTStrategy) Resolve(ctx context.Context, r *http.Request) (*Identity, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		log.Debug("bearer token rejected", "error", err)
		return nil, nil
	}

	if claims.UserID > 0 {
		user, err := s.users.GetByID(ctx, claims.UserID)
		if err == nil {
			return &Identity{User: user}, nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("load token user: %w", err)
		}
	}
	if claims.Email != "" {
		user, err := s.users.GetByEmail(ctx, claims.Email)
		if err == nil {
			return &Identity{User: user}, nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("load token user: %w", err)
		}
	}
	return nil, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
