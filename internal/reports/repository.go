package reports

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository runs the report aggregations in SQL.
type Repository interface {
	Summary(ctx context.Context, r Range) (Summary, error)
	ExpenseTotal(ctx context.Context, r Range) (float64, error)
	PayrollTotal(ctx context.Context, r Range) (float64, error)
	TopProducts(ctx context.Context, r Range, limit int) ([]TopProduct, error)
	Receivables(ctx context.Context) (Receivables, error)
	ExportRows(ctx context.Context, r Range) ([]ExportRow, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

func rangeClause(col string, r Range, args *[]any) string {
	clause := ""
	if !r.From.IsZero() {
		clause += ` AND ` + col + ` >= ?`
		*args = append(*args, r.From)
	}
	if !r.To.IsZero() {
		clause += ` AND ` + col + ` <= ?`
		*args = append(*args, r.To)
	}
	return clause
}

func (s *repository) Summary(ctx context.Context, r Range) (Summary, error) {
	// placeholders must follow textual order: the discount subquery
	// appears before the outer WHERE
	args := []any{}
	subClause := rangeClause("t2.created_at", r, &args)
	outerClause := rangeClause("t.created_at", r, &args)

	var result Summary
	err := s.conn.GetContext(ctx, &result, `
		SELECT
			COALESCE(SUM(ti.line_total), 0)                AS omzet,
			COALESCE(SUM(ti.quantity * ti.buy_price), 0)   AS hpp,
			COUNT(DISTINCT t.id)                           AS transaction_count,
			COALESCE((
				SELECT SUM(t2.subtotal - t2.total)
				FROM transactions t2
				WHERE 1=1`+subClause+`
			), 0)                                          AS discount_total
		FROM transactions t
		JOIN transaction_items ti ON ti.transaction_id = t.id
		WHERE 1=1`+outerClause, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("reports: summary: %w", err)
	}
	result.GrossProfit = result.Omzet - result.HPP
	return result, nil
}

func (s *repository) ExpenseTotal(ctx context.Context, r Range) (float64, error) {
	args := []any{}
	clause := rangeClause("expense_date", r, &args)
	var total float64
	if err := s.conn.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE 1=1`+clause, args...); err != nil {
		return 0, fmt.Errorf("reports: expense total: %w", err)
	}
	return total, nil
}

func (s *repository) PayrollTotal(ctx context.Context, r Range) (float64, error) {
	args := []any{}
	clause := rangeClause("paid_at", r, &args)
	var total float64
	if err := s.conn.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_paid), 0) FROM payrolls WHERE 1=1`+clause, args...); err != nil {
		return 0, fmt.Errorf("reports: payroll total: %w", err)
	}
	return total, nil
}

func (s *repository) TopProducts(ctx context.Context, r Range, limit int) ([]TopProduct, error) {
	args := []any{}
	clause := rangeClause("t.created_at", r, &args)
	args = append(args, limit)

	result := []TopProduct{}
	err := s.conn.SelectContext(ctx, &result, `
		SELECT
			ti.product_id,
			ti.product_name,
			SUM(ti.quantity)   AS quantity_sold,
			SUM(ti.line_total) AS revenue
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE 1=1`+clause+`
		GROUP BY ti.product_id, ti.product_name
		ORDER BY quantity_sold DESC, revenue DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: top products: %w", err)
	}
	return result, nil
}

func (s *repository) Receivables(ctx context.Context) (Receivables, error) {
	var result Receivables
	if err := s.conn.GetContext(ctx, &result.Collections,
		`SELECT COALESCE(SUM(amount), 0) FROM collections`); err != nil {
		return Receivables{}, fmt.Errorf("reports: collections total: %w", err)
	}
	if err := s.conn.GetContext(ctx, &result.Payments,
		`SELECT COALESCE(SUM(amount), 0) FROM payments`); err != nil {
		return Receivables{}, fmt.Errorf("reports: payments total: %w", err)
	}
	result.Outstanding = result.Collections - result.Payments
	return result, nil
}

func (s *repository) ExportRows(ctx context.Context, r Range) ([]ExportRow, error) {
	args := []any{}
	clause := rangeClause("t.created_at", r, &args)

	result := []ExportRow{}
	err := s.conn.SelectContext(ctx, &result, `
		SELECT
			t.code,
			t.created_at AS sold_at,
			u.username   AS cashier,
			ti.product_name,
			ti.quantity,
			ti.sell_price,
			ti.line_total,
			t.total
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		JOIN users u ON u.id = t.cashier_id
		WHERE 1=1`+clause+`
		ORDER BY t.created_at ASC, t.id ASC, ti.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: export rows: %w", err)
	}
	return result, nil
}
