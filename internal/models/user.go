package models

import "time"

// User types accepted at registration.
const (
	UserTypeCreator    = "creator"
	UserTypeInvestor   = "investor"
	UserTypeProduction = "production"
)

// User is the identity record shared by auth and messaging.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	UserType     string    `db:"user_type" json:"userType"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ValidUserType reports whether t is one of the known user types.
func ValidUserType(t string) bool {
	switch t {
	case UserTypeCreator, UserTypeInvestor, UserTypeProduction:
		return true
	}
	return false
}
