package suppliers

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

// Repository defines persistence operations for suppliers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
	Delete(ctx context.Context, id int64) error
	ProductCount(ctx context.Context, id int64) (int, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const columns = `id, name, address, phone, email, contact_person, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	query := `SELECT ` + columns + ` FROM suppliers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM suppliers WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		clause := ` AND (name LIKE ? OR contact_person LIKE ?)`
		query += clause
		countQuery += clause
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("suppliers: count: %w", err)
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) + ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Supplier
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("suppliers: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.conn.GetContext(ctx, &s, `SELECT `+columns+` FROM suppliers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Supplier{}, fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
		}
		return Supplier{}, fmt.Errorf("suppliers: get: %w", err)
	}
	return s, nil
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	now := time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO suppliers (name, address, phone, email, contact_person, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		supplier.Name, supplier.Address, supplier.Phone, supplier.Email, supplier.ContactPerson, now, now)
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: insert id: %w", err)
	}
	supplier.ID = id
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	return supplier, nil
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE suppliers SET name = ?, address = ?, phone = ?, email = ?, contact_person = ?, updated_at = ? WHERE id = ?`,
		supplier.Name, supplier.Address, supplier.Phone, supplier.Email, supplier.ContactPerson, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("suppliers: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("suppliers: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ProductCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE supplier_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("suppliers: product count: %w", err)
	}
	return count, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "created_at":
		return "created_at " + dir
	case "email":
		return "email " + dir
	default:
		return "name " + dir
	}
}
