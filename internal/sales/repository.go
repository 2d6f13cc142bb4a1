package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/db"
	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for sales. Create, Replace
// and Delete are atomic: stock movements, line items and the header
// commit together or not at all.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	Get(ctx context.Context, id int64) (Transaction, error)
	Snapshot(ctx context.Context, productID int64) (ProductSnapshot, error)
	PrescriptionStatus(ctx context.Context, id int64) (string, error)
	Create(ctx context.Context, trx Transaction, items []TransactionItem) (int64, error)
	Replace(ctx context.Context, id int64, trx Transaction, items []TransactionItem) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const headerColumns = `id, code, cashier_id, subtotal, discount_amount, discount_type, total, payment_method, prescription_id, status, created_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		where += ` AND code LIKE ?`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.CashierID > 0 {
		where += ` AND cashier_id = ?`
		args = append(args, filters.CashierID)
	}
	if filters.From != nil {
		where += ` AND created_at >= ?`
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		where += ` AND created_at <= ?`
		args = append(args, *filters.To)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("sales: count: %w", err)
	}

	query := `SELECT ` + headerColumns + ` FROM transactions` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Transaction
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("sales: list: %w", err)
	}
	for i := range result {
		items, err := r.items(ctx, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	var trx Transaction
	err := r.conn.GetContext(ctx, &trx, `SELECT `+headerColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
		}
		return Transaction{}, fmt.Errorf("sales: get: %w", err)
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	trx.Items = items
	return trx, nil
}

func (r *repository) items(ctx context.Context, id int64) ([]TransactionItem, error) {
	items := []TransactionItem{}
	err := r.conn.SelectContext(ctx, &items,
		`SELECT id, transaction_id, product_id, product_name, quantity, sell_price, buy_price, line_total
		 FROM transaction_items WHERE transaction_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("sales: items: %w", err)
	}
	return items, nil
}

func (r *repository) Snapshot(ctx context.Context, productID int64) (ProductSnapshot, error) {
	var snap ProductSnapshot
	err := r.conn.GetContext(ctx, &snap,
		`SELECT id, name, stock, sell_price, buy_price, requires_prescription FROM products WHERE id = ?`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProductSnapshot{}, fmt.Errorf("sales: product %d: %w", productID, httpx.ErrNotFound)
		}
		return ProductSnapshot{}, fmt.Errorf("sales: product snapshot: %w", err)
	}
	return snap, nil
}

func (r *repository) PrescriptionStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.conn.GetContext(ctx, &status, `SELECT status FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("sales: prescription %d: %w", id, httpx.ErrNotFound)
		}
		return "", fmt.Errorf("sales: prescription status: %w", err)
	}
	return status, nil
}

func (r *repository) Create(ctx context.Context, trx Transaction, items []TransactionItem) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (code, cashier_id, subtotal, discount_amount, discount_type, total, payment_method, prescription_id, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trx.Code, trx.CashierID, trx.Subtotal, trx.DiscountAmount, trx.DiscountType,
			trx.Total, trx.PaymentMethod, trx.PrescriptionID, StatusCompleted, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("sales: insert header: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sales: insert id: %w", err)
		}
		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}
		if err := decrementStock(ctx, tx, items); err != nil {
			return err
		}
		if trx.PrescriptionID != nil {
			if err := consumePrescription(ctx, tx, *trx.PrescriptionID); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// Replace rewrites a sale as if it were deleted and re-created: the old
// lines restock, the new lines decrement, all inside one transaction.
func (r *repository) Replace(ctx context.Context, id int64, trx Transaction, items []TransactionItem) error {
	return db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		prev, err := restockItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if prev == 0 {
			return fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("sales: clear items: %w", err)
		}
		var oldRx sql.NullInt64
		if err := tx.GetContext(ctx, &oldRx, `SELECT prescription_id FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sales: read header: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET subtotal = ?, discount_amount = ?, discount_type = ?, total = ?, payment_method = ?, prescription_id = ? WHERE id = ?`,
			trx.Subtotal, trx.DiscountAmount, trx.DiscountType, trx.Total, trx.PaymentMethod, trx.PrescriptionID, id)
		if err != nil {
			return fmt.Errorf("sales: update header: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
		}
		if err := insertItems(ctx, tx, id, items); err != nil {
			return err
		}
		if err := decrementStock(ctx, tx, items); err != nil {
			return err
		}
		if trx.PrescriptionID != nil && (!oldRx.Valid || oldRx.Int64 != *trx.PrescriptionID) {
			if err := consumePrescription(ctx, tx, *trx.PrescriptionID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete restocks every sold line, then removes the sale. A consumed
// prescription stays used.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		restocked, err := restockItems(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sales: delete: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 && restocked == 0 {
			return fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx *sqlx.Tx, id int64, items []TransactionItem) error {
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_items (transaction_id, product_id, product_name, quantity, sell_price, buy_price, line_total)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, item.ProductID, item.ProductName, item.Quantity, item.SellPrice, item.BuyPrice, item.LineTotal); err != nil {
			return fmt.Errorf("sales: insert item: %w", err)
		}
	}
	return nil
}

// decrementStock applies each sold quantity only when enough stock
// remains. A zero-row update means another sale raced this one to the
// last units, so the whole transaction rolls back.
func decrementStock(ctx context.Context, tx *sqlx.Tx, items []TransactionItem) error {
	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
			item.Quantity, time.Now().UTC(), item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("sales: decrement stock: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: %s", httpx.ErrInsufficientStock, item.ProductName)
		}
	}
	return nil
}

func restockItems(ctx context.Context, tx *sqlx.Tx, id int64) (int, error) {
	var items []TransactionItem
	if err := tx.SelectContext(ctx, &items,
		`SELECT product_id, quantity FROM transaction_items WHERE transaction_id = ?`, id); err != nil {
		return 0, fmt.Errorf("sales: read items: %w", err)
	}
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
			item.Quantity, time.Now().UTC(), item.ProductID); err != nil {
			return 0, fmt.Errorf("sales: restock: %w", err)
		}
	}
	return len(items), nil
}

func consumePrescription(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE prescriptions SET status = 'used', updated_at = ? WHERE id = ? AND status = 'active'`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sales: consume prescription: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: prescription already used", httpx.ErrConflict)
	}
	return nil
}
