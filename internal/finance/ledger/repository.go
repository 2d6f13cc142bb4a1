package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for one ledger table.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Entry, int, error)
	Get(ctx context.Context, id int64) (Entry, error)
	Create(ctx context.Context, params Params) (int64, error)
	Update(ctx context.Context, id int64, params Params) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	conn *sqlx.DB
	kind Kind
}

// NewRepository constructs the SQL repository for the given ledger.
// The kind doubles as the table name and both values are fixed
// identifiers, never user input.
func NewRepository(conn *sqlx.DB, kind Kind) Repository {
	if kind != KindCollections && kind != KindPayments {
		panic(fmt.Sprintf("ledger: unknown kind %q", kind))
	}
	return &repository{conn: conn, kind: kind}
}

func (r *repository) table() string { return string(r.kind) }

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.From != nil {
		where += ` AND entry_date >= ?`
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		where += ` AND entry_date <= ?`
		args = append(args, *filters.To)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM `+r.table()+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", r.kind, err)
	}

	query := `SELECT id, entry_date, amount, notes, created_at FROM ` + r.table() + where +
		` ORDER BY entry_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Entry
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: list: %w", r.kind, err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.conn.GetContext(ctx, &e,
		`SELECT id, entry_date, amount, notes, created_at FROM `+r.table()+` WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("%s: id %d: %w", r.kind, id, httpx.ErrNotFound)
		}
		return Entry{}, fmt.Errorf("%s: get: %w", r.kind, err)
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, params Params) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO `+r.table()+` (entry_date, amount, notes, created_at) VALUES (?, ?, ?, ?)`,
		params.EntryDate, params.Amount, params.Notes, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: insert: %w", r.kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: insert id: %w", r.kind, err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, params Params) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE `+r.table()+` SET entry_date = ?, amount = ?, notes = ? WHERE id = ?`,
		params.EntryDate, params.Amount, params.Notes, id)
	if err != nil {
		return fmt.Errorf("%s: update: %w", r.kind, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%s: id %d: %w", r.kind, id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM `+r.table()+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: delete: %w", r.kind, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%s: id %d: %w", r.kind, id, httpx.ErrNotFound)
	}
	return nil
}
