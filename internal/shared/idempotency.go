package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// IdempotencyStore persists processed keys so a retried client request
// cannot re-run a stock-mutating workflow.
type IdempotencyStore struct {
	conn *sqlx.DB
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(conn *sqlx.DB) *IdempotencyStore {
	return &IdempotencyStore{conn: conn}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// CheckAndInsert ensures key uniqueness per module. INSERT OR IGNORE
// avoids inspecting driver error strings for the conflict case.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	res, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO idempotency_keys (key, module, created_at) VALUES (?, ?, ?)`,
		key, module, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.conn.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE key = ?`, key)
	return err
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.conn.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < ?`, cutoff)
	return err
}
