package models

import (
	"database/sql"
	"time"
)

// User is an account. The email comes from the upstream OAuth flow and the
// username is chosen once, later.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	Username     sql.NullString `db:"username" json:"-"`
	Verified     bool           `db:"verified" json:"verified"`
	IsAdmin      bool           `db:"is_admin" json:"-"`
	LastActiveAt time.Time      `db:"last_active_at" json:"last_active_at"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// UsernameOrEmpty returns the chosen username, or "" when unset.
func (u User) UsernameOrEmpty() string {
	if u.Username.Valid {
		return u.Username.String
	}
	return ""
}
