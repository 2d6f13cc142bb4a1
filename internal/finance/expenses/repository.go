package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for expenses.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Expense, int, error)
	Get(ctx context.Context, id int64) (Expense, error)
	Create(ctx context.Context, params Params, createdBy *int64) (int64, error)
	Update(ctx context.Context, id int64, params Params) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const columns = `id, category, description, amount, expense_date, created_by, created_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Category != "" {
		where += ` AND category = ?`
		args = append(args, filters.Category)
	}
	if filters.From != nil {
		where += ` AND expense_date >= ?`
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		where += ` AND expense_date <= ?`
		args = append(args, *filters.To)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM expenses`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("expenses: count: %w", err)
	}

	query := `SELECT ` + columns + ` FROM expenses` + where + ` ORDER BY expense_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Expense
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("expenses: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.conn.GetContext(ctx, &e, `SELECT `+columns+` FROM expenses WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Expense{}, fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
		}
		return Expense{}, fmt.Errorf("expenses: get: %w", err)
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, params Params, createdBy *int64) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO expenses (category, description, amount, expense_date, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		params.Category, params.Description, params.Amount, params.ExpenseDate, createdBy, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expenses: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expenses: insert id: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, params Params) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE expenses SET category = ?, description = ?, amount = ?, expense_date = ? WHERE id = ?`,
		params.Category, params.Description, params.Amount, params.ExpenseDate, id)
	if err != nil {
		return fmt.Errorf("expenses: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("expenses: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
