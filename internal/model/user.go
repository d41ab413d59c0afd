package model

import "time"

type User struct {
	ID           UserID    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Handle       string    `json:"handle" db:"handle"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Magic link purposes. A token only works for the flow it was issued for.
const (
	LinkLogin         = "login"
	LinkPasswordReset = "password_reset"
)

// MagicLink is a one-time token for signing in or resetting a password.
// Only the sha256 of the token is stored.
type MagicLink struct {
	TokenHash string     `db:"token_hash"`
	UserID    UserID     `db:"user_id"`
	Purpose   string     `db:"purpose"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

func (m *MagicLink) Valid(now time.Time) bool {
	return m.UsedAt == nil && now.Before(m.ExpiresAt)
}
