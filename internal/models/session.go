package models

import "time"

// Session is a login session keyed by an opaque token.
type Session struct {
	ID        string    `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Valid reports whether the session is still live at now. Expiry is strict:
// a session expiring exactly at now is no longer valid.
func (s Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
