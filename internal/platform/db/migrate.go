package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('admin','apoteker','kasir')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		contact_person TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		min_stock INTEGER NOT NULL DEFAULT 0,
		sell_price REAL NOT NULL DEFAULT 0,
		buy_price REAL NOT NULL DEFAULT 0,
		expiry_date DATE,
		requires_prescription INTEGER NOT NULL DEFAULT 0,
		supplier_id INTEGER REFERENCES suppliers(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS prescriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doctor_name TEXT NOT NULL,
		patient_name TEXT NOT NULL,
		prescription_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','used')),
		created_by INTEGER REFERENCES users(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS prescription_medications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prescription_id INTEGER NOT NULL REFERENCES prescriptions(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		dosage TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		cashier_id INTEGER NOT NULL REFERENCES users(id),
		subtotal REAL NOT NULL,
		discount_amount REAL NOT NULL DEFAULT 0,
		discount_type TEXT NOT NULL DEFAULT 'fixed' CHECK (discount_type IN ('percentage','fixed')),
		total REAL NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'cash',
		prescription_id INTEGER REFERENCES prescriptions(id),
		status TEXT NOT NULL DEFAULT 'completed',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS transaction_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		sell_price REAL NOT NULL,
		buy_price REAL NOT NULL,
		line_total REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		base_salary REAL NOT NULL DEFAULT 0,
		bonus REAL NOT NULL DEFAULT 0,
		start_date DATE,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','inactive')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS payrolls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		period TEXT NOT NULL,
		total_paid REAL NOT NULL,
		paid_at DATE NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL,
		expense_date DATE NOT NULL,
		created_by INTEGER REFERENCES users(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_date DATE NOT NULL,
		amount REAL NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_date DATE NOT NULL,
		amount REAL NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id INTEGER NOT NULL DEFAULT 0,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta TEXT NOT NULL DEFAULT '{}',
		occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT PRIMARY KEY,
		module TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_products_supplier ON products(supplier_id);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_items_tx ON transaction_items(transaction_id);`,
	`CREATE INDEX IF NOT EXISTS idx_prescription_meds_rx ON prescription_medications(prescription_id);`,
}

// Migrate applies the schema idempotently on first access.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: migrate: %w", err)
		}
	}
	return nil
}
