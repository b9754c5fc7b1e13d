package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"pitchey-api/internal/cache"
	"pitchey-api/internal/models"
	"pitchey-api/internal/observability"
	"pitchey-api/internal/repositories"
)

const sessionKeyPrefix = "session:"

type cachedSession struct {
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// SessionStore resolves session ids against the cache and the database.
type SessionStore struct {
	sessions repositories.SessionRepository
	kv       cache.KV
	cacheTTL time.Duration
	now      func() time.Time
}

// NewSessionStore builds a SessionStore. cacheTTL bounds how stale a cached
// session may be regardless of the session's own expiry.
func NewSessionStore(sessions repositories.SessionRepository, kv cache.KV, cacheTTL time.Duration) *SessionStore {
	return &SessionStore{sessions: sessions, kv: kv, cacheTTL: cacheTTL, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Lookup returns the identity for a live session, or nil when the session is
// unknown or expired. With useCache the KV store is consulted first and
// filled on a database hit.
func (s *SessionStore) Lookup(ctx context.Context, sessionID string, useCache bool) (*Identity, error) {
	if useCache && s.kv != nil {
		if identity := s.fromCache(ctx, sessionID); identity != nil {
			return identity, nil
		}
	}

	session, user, err := s.sessions.FindValidSession(ctx, sessionID)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !session.Valid(s.now()) {
		return nil, nil
	}

	if useCache && s.kv != nil {
		s.toCache(ctx, sessionID, cachedSession{User: user, ExpiresAt: session.ExpiresAt})
	}
	return &Identity{User: user, SessionID: sessionID}, nil
}

func (s *SessionStore) fromCache(ctx context.Context, sessionID string) *Identity {
	raw, ok, err := s.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		log.Warn("session cache read failed", "error", err)
		observability.IncSessionCache("error")
		return nil
	}
	if !ok {
		observability.IncSessionCache("miss")
		return nil
	}

	var entry cachedSession
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.User.ID == 0 {
		observability.IncSessionCache("invalid")
		return nil
	}
	if !entry.ExpiresAt.After(s.now()) {
		observability.IncSessionCache("expired")
		return nil
	}
	observability.IncSessionCache("hit")
	return &Identity{User: entry.User, SessionID: sessionID}
}

func (s *SessionStore) toCache(ctx context.Context, sessionID string, entry cachedSession) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.kv.Put(ctx, sessionKey(sessionID), string(payload), s.cacheTTL); err != nil {
		log.Warn("session cache write failed", "error", err)
	}
}

// Create starts a new session for userID lasting ttl.
func (s *SessionStore) Create(ctx context.Context, userID int, ttl time.Duration) (models.Session, error) {
	now := s.now()
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Revoke deletes a session and drops its cache entry.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	if s.kv != nil {
		if err := s.kv.Delete(ctx, sessionKey(sessionID)); err != nil {
			log.Warn("session cache delete failed", "error", err)
		}
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired session rows. Cached entries age out on
// their own TTL.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
