package auth

import "time"

// Roles understood by the role gate.
const (
	RoleAdmin    = "admin"
	RoleApoteker = "apoteker"
	RoleKasir    = "kasir"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleApoteker, RoleKasir:
		return true
	}
	return false
}

// User represents an authenticated user account.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Profile is the client-visible slice of a user account.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// ProfileOf builds the client-visible profile for a user.
func ProfileOf(u *User) Profile {
	return Profile{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}
