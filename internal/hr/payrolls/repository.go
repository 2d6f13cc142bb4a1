package payrolls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for payrolls.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Payroll, int, error)
	Get(ctx context.Context, id int64) (Payroll, error)
	Create(ctx context.Context, params Params) (int64, error)
	Update(ctx context.Context, id int64, params Params) error
	Delete(ctx context.Context, id int64) error
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const columns = `p.id, p.employee_id, e.name AS employee_name, p.period, p.total_paid, p.paid_at, p.notes, p.created_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Payroll, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.EmployeeID > 0 {
		where += ` AND p.employee_id = ?`
		args = append(args, filters.EmployeeID)
	}
	if filters.Period != "" {
		where += ` AND p.period = ?`
		args = append(args, filters.Period)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM payrolls p`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("payrolls: count: %w", err)
	}

	query := `SELECT ` + columns + ` FROM payrolls p JOIN employees e ON e.id = p.employee_id` +
		where + ` ORDER BY p.paid_at DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Payroll
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("payrolls: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Payroll, error) {
	var p Payroll
	err := r.conn.GetContext(ctx, &p,
		`SELECT `+columns+` FROM payrolls p JOIN employees e ON e.id = p.employee_id WHERE p.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payroll{}, fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
		}
		return Payroll{}, fmt.Errorf("payrolls: get: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, params Params) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO payrolls (employee_id, period, total_paid, paid_at, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		params.EmployeeID, params.Period, params.TotalPaid, params.PaidAt, params.Notes, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("payrolls: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("payrolls: insert id: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, params Params) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE payrolls SET employee_id = ?, period = ?, total_paid = ?, paid_at = ?, notes = ? WHERE id = ?`,
		params.EmployeeID, params.Period, params.TotalPaid, params.PaidAt, params.Notes, id)
	if err != nil {
		return fmt.Errorf("payrolls: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM payrolls WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("payrolls: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM employees WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("payrolls: employee check: %w", err)
	}
	return count > 0, nil
}
