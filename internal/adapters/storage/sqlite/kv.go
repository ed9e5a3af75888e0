package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// KV is a durable key-value backend for history state documents.
type KV struct {
	db *sql.DB
}

// Open opens (and migrates) a key-value database at path.
func Open(path string) (*KV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	kv := &KV{db: db}
	if err := kv.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// OpenInMemory opens a shared in-memory database, useful for tests.
func OpenInMemory() (*KV, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	kv := &KV{db: db}
	if err := kv.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// Close closes the underlying database.
func (k *KV) Close() error {
	return k.db.Close()
}

// migrate handles migrate.
func (k *KV) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS kv (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := k.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// GetItem reads one value. A missing name reports ok=false without error.
func (k *KV) GetItem(name string) (string, bool, error) {
	var value string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read kv %q: %w", name, err)
	}
	return value, true, nil
}

// SetItem upserts one value.
func (k *KV) SetItem(name, value string) error {
	_, err := k.db.Exec(`
		INSERT INTO kv(name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value, ts(time.Now()))
	if err != nil {
		return fmt.Errorf("write kv %q: %w", name, err)
	}
	return nil
}

// RemoveItem deletes one value. Removing a missing name is not an error.
func (k *KV) RemoveItem(name string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE name = ?`, name); err != nil {
		return fmt.Errorf("remove kv %q: %w", name, err)
	}
	return nil
}

// ts renders timestamps the way the rest of the tree does.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
