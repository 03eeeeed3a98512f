package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cedarhouse/menu-api/internal/repositories"
)

const schema = `
CREATE TABLE IF NOT EXISTS carts (
	key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// CartRepository persists serialized carts in a local SQLite database, one
// row per cart key. It is the durable stand-in for the per-browser key-value
// store the original site relied on.
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository opens (or creates) the database at path and ensures the
// carts table exists. Use ":memory:" for ephemeral storage in tests.
func NewCartRepository(path string) (*CartRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite cart repository: path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite cart repository: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite cart repository: create schema: %w", err)
	}
	return &CartRepository{db: db}, nil
}

// Load implements the CartRepository port.
func (r *CartRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if r == nil || r.db == nil {
		return nil, &storeError{op: "load", err: errors.New("repository not initialised"), unavailable: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &storeError{op: "load", err: errors.New("key is required"), notFound: true}
	}

	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM carts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storeError{op: "load", err: err, notFound: true}
	}
	if err != nil {
		return nil, &storeError{op: "load", err: err, unavailable: true}
	}
	return payload, nil
}

// Save implements the CartRepository port. The write is committed before
// Save returns; SQLite gives us that for free per statement.
func (r *CartRepository) Save(ctx context.Context, key string, payload []byte) error {
	if r == nil || r.db == nil {
		return &storeError{op: "save", err: errors.New("repository not initialised"), unavailable: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return &storeError{op: "save", err: errors.New("key is required")}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (key, payload, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key, payload)
	if err != nil {
		return &storeError{op: "save", err: err, unavailable: true}
	}
	return nil
}

// Delete implements the CartRepository port. Deleting an absent key is a no-op.
func (r *CartRepository) Delete(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return &storeError{op: "delete", err: errors.New("repository not initialised"), unavailable: true}
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE key = ?`, strings.TrimSpace(key))
	if err != nil {
		return &storeError{op: "delete", err: err, unavailable: true}
	}
	return nil
}

// Close releases the underlying database handle.
func (r *CartRepository) Close(context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type storeError struct {
	op          string
	err         error
	notFound    bool
	unavailable bool
}

func (e *storeError) Error() string {
	return fmt.Sprintf("sqlite cart repository: %s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() error       { return e.err }
func (e *storeError) IsNotFound() bool    { return e != nil && e.notFound }
func (e *storeError) IsConflict() bool    { return false }
func (e *storeError) IsUnavailable() bool { return e != nil && e.unavailable }

var _ repositories.CartRepository = (*CartRepository)(nil)
var _ repositories.RepositoryError = (*storeError)(nil)
