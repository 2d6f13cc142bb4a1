package employees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for employees.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Employee, int, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, params Params) (int64, error)
	Update(ctx context.Context, id int64, params Params) error
	Delete(ctx context.Context, id int64) error
	PayrollCount(ctx context.Context, id int64) (int, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const columns = `id, name, position, base_salary, bonus, start_date, status, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Employee, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		where += ` AND (name LIKE ? OR position LIKE ?)`
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filters.Status != "" {
		where += ` AND status = ?`
		args = append(args, filters.Status)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM employees`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("employees: count: %w", err)
	}

	query := `SELECT ` + columns + ` FROM employees` + where + ` ORDER BY name ASC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Employee
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("employees: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := r.conn.GetContext(ctx, &e, `SELECT `+columns+` FROM employees WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
		}
		return Employee{}, fmt.Errorf("employees: get: %w", err)
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, params Params) (int64, error) {
	now := time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO employees (name, position, base_salary, bonus, start_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name, params.Position, params.BaseSalary, params.Bonus, params.StartDate, params.Status, now, now)
	if err != nil {
		return 0, fmt.Errorf("employees: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("employees: insert id: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, params Params) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE employees SET name = ?, position = ?, base_salary = ?, bonus = ?, start_date = ?, status = ?, updated_at = ? WHERE id = ?`,
		params.Name, params.Position, params.BaseSalary, params.Bonus, params.StartDate, params.Status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("employees: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("employees: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) PayrollCount(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM payrolls WHERE employee_id = ?`, id); err != nil {
		return 0, fmt.Errorf("employees: payroll count: %w", err)
	}
	return count, nil
}
