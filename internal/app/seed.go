package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/auth"
)

// SeedAdmin creates the bootstrap admin account when the users table is
// empty, so a fresh install can log in as admin right away.
func SeedAdmin(ctx context.Context, conn *sqlx.DB, logger *slog.Logger, password string) error {
	var count int
	if err := conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("app: seed count: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("app: seed hash: %w", err)
	}
	now := time.Now().UTC()
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"admin", hash, "Administrator", auth.RoleAdmin, now, now); err != nil {
		return fmt.Errorf("app: seed insert: %w", err)
	}
	logger.Info("seeded bootstrap admin account", slog.String("username", "admin"))
	return nil
}
