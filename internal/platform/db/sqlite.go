// Package db opens and migrates the embedded SQLite database.
package db

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the single-file SQLite database at path, creating the
// parent directory when missing. Foreign keys and WAL are always on; the
// pool is capped at one writer connection because modernc serializes
// writes per connection anyway.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("platform/db: create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_pragma": []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)"},
	}.Encode())

	conn, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: connect: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// DefaultPath returns the platform application-data location of the
// database file, honoring an explicit override.
func DefaultPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("platform/db: resolve config dir: %w", err)
	}
	return filepath.Join(base, "apotek-pos", "apotek.db"), nil
}
