package users

import "time"

// User represents a user account for management.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateParams carries the fields needed to create an account.
type CreateParams struct {
	Username string
	Password string
	Name     string
	Role     string
}

// UpdateParams patches an account; nil fields are left untouched.
type UpdateParams struct {
	Username *string
	Password *string
	Name     *string
	Role     *string
}
