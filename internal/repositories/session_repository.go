package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pitchey-api/internal/models"
)

// SessionRepository abstracts login session persistence.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	FindValidSession(ctx context.Context, sessionID string) (models.Session, models.User, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionUserRow struct {
	SessionID        string    `db:"session_id"`
	ExpiresAt        time.Time `db:"expires_at"`
	SessionCreatedAt time.Time `db:"session_created_at"`
	models.User
}

// CreateSession stores a new session row.
func (r *SessionRepo) CreateSession(ctx context.Context, session models.Session) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`,
		session.ID, session.UserID, session.ExpiresAt)
	return err
}

// FindValidSession returns the session and its user when the session has not expired.
func (r *SessionRepo) FindValidSession(ctx context.Context, sessionID string) (models.Session, models.User, error) {
	query := `SELECT s.id AS session_id, s.expires_at, s.created_at AS session_created_at,
            u.id, u.email, u.username, u.user_type, u.display_name, u.password_hash, u.created_at
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.id=$1 AND s.expires_at > NOW()`
	var row sessionUserRow
	if err := r.db.GetContext(ctx, &row, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, models.User{}, ErrSessionNotFound
		}
		return models.Session{}, models.User{}, err
	}

	session := models.Session{
		ID:        row.SessionID,
		UserID:    row.User.ID,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.SessionCreatedAt,
	}
	return session, row.User, nil
}

// DeleteSession removes a session; deleting an unknown id is not an error.
func (r *SessionRepo) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, sessionID)
	return err
}

// DeleteExpired purges sessions whose expiry has passed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
