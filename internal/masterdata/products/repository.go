package products

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

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, params CreateParams) (Product, error)
	Update(ctx context.Context, id int64, sets map[string]any) error
	Delete(ctx context.Context, id int64) error
	SupplierExists(ctx context.Context, id int64) (bool, error)
	ReferencedBySales(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const columns = `id, name, category, stock, min_stock, sell_price, buy_price, expiry_date, requires_prescription, supplier_id, created_at, updated_at`

func buildWhere(filters ListFilters) (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		where += ` AND (name LIKE ? OR category LIKE ?)`
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filters.Category != "" {
		where += ` AND category = ?`
		args = append(args, filters.Category)
	}
	if filters.RequiresPrescription != nil {
		where += ` AND requires_prescription = ?`
		args = append(args, *filters.RequiresPrescription)
	}
	if filters.InStock != nil {
		if *filters.InStock {
			where += ` AND stock > 0`
		} else {
			where += ` AND stock = 0`
		}
	}
	if filters.LowStock != nil && *filters.LowStock {
		where += ` AND stock <= min_stock`
	}
	if filters.SupplierID > 0 {
		where += ` AND supplier_id = ?`
		args = append(args, filters.SupplierID)
	}
	return where, args
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	query := `SELECT ` + columns + ` FROM products` + where +
		` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) + ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Product
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.conn.GetContext(ctx, &p, `SELECT `+columns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, params CreateParams) (Product, error) {
	now := time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO products (name, category, stock, min_stock, sell_price, buy_price, expiry_date, requires_prescription, supplier_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name, params.Category, params.Stock, params.MinStock, params.SellPrice, params.BuyPrice,
		params.ExpiryDate, params.RequiresPrescription, params.SupplierID, now, now)
	if err != nil {
		return Product{}, fmt.Errorf("products: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Product{}, fmt.Errorf("products: insert id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, sets map[string]any) error {
	if len(sets) == 0 {
		return nil
	}
	query := `UPDATE products SET updated_at = ?`
	args := []any{time.Now().UTC()}
	for _, col := range []string{"name", "category", "stock", "min_stock", "sell_price", "buy_price", "expiry_date", "requires_prescription", "supplier_id"} {
		if v, ok := sets[col]; ok {
			query += `, ` + col + ` = ?`
			args = append(args, v)
		}
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM suppliers WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("products: supplier check: %w", err)
	}
	return count > 0, nil
}

func (r *repository) ReferencedBySales(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM transaction_items WHERE product_id = ?`, id); err != nil {
		return false, fmt.Errorf("products: sales check: %w", err)
	}
	return count > 0, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "category":
		return "category " + dir
	case "stock":
		return "stock " + dir
	case "sell_price":
		return "sell_price " + dir
	case "expiry_date":
		return "expiry_date " + dir
	default:
		return "name " + dir
	}
}
