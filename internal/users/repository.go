package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	Insert(ctx context.Context, params CreateParams, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, sets map[string]any) error
	ReferencedByRecords(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) RepositoryPort {
	return &repository{conn: conn}
}

const userColumns = `id, username, name, role, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		clause := ` AND (username LIKE ? OR name LIKE ?)`
		query += clause
		countQuery += clause
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) + ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []User
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.conn.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return user, nil
}

func (r *repository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int
	err := r.conn.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id != ?`, username, excludeID)
	if err != nil {
		return false, fmt.Errorf("users: username check: %w", err)
	}
	return count > 0, nil
}

func (r *repository) Insert(ctx context.Context, params CreateParams, passwordHash string) (User, error) {
	now := time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		params.Username, passwordHash, params.Name, params.Role, now, now)
	if err != nil {
		return User{}, fmt.Errorf("users: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("users: insert id: %w", err)
	}
	return User{ID: id, Username: params.Username, Name: params.Name, Role: params.Role, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *repository) Update(ctx context.Context, id int64, sets map[string]any) error {
	if len(sets) == 0 {
		return nil
	}
	query := `UPDATE users SET updated_at = ?`
	args := []any{time.Now().UTC()}
	for _, col := range []string{"username", "password_hash", "name", "role"} {
		if v, ok := sets[col]; ok {
			query += `, ` + col + ` = ?`
			args = append(args, v)
		}
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// ReferencedByRecords reports whether any sale, prescription or expense
// still points at the account.
func (r *repository) ReferencedByRecords(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.conn.GetContext(ctx, &count,
		`SELECT (SELECT COUNT(*) FROM transactions WHERE cashier_id = ?)
		      + (SELECT COUNT(*) FROM prescriptions WHERE created_by = ?)
		      + (SELECT COUNT(*) FROM expenses WHERE created_by = ?)`,
		id, id, id)
	if err != nil {
		return false, fmt.Errorf("users: reference check: %w", err)
	}
	return count > 0, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("users: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "username":
		return "username " + dir
	case "role":
		return "role " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
