package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

// SQLRepository implements Repository against the embedded database.
type SQLRepository struct {
	conn *sqlx.DB
}

// NewRepository constructs a SQLRepository.
func NewRepository(conn *sqlx.DB) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// FindByUsername fetches a user by username.
func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.conn.GetContext(ctx, &user,
		`SELECT id, username, password_hash, name, role, created_at, updated_at FROM users WHERE username = ?`,
		username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auth: user %q: %w", username, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &user, nil
}

// FindByID fetches a user by primary key.
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.conn.GetContext(ctx, &user,
		`SELECT id, username, password_hash, name, role, created_at, updated_at FROM users WHERE id = ?`,
		id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auth: user id %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &user, nil
}

var _ Repository = (*SQLRepository)(nil)
