package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithTx executes fn inside a single database transaction, rolling back
// on error so multi-statement workflows are all-or-nothing.
func WithTx(ctx context.Context, conn *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
