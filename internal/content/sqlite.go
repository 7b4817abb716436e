package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	database  TEXT NOT NULL COLLATE NOCASE,
	id        TEXT NOT NULL,
	parent_id TEXT NOT NULL DEFAULT '',
	name      TEXT NOT NULL,
	template  TEXT NOT NULL DEFAULT '',
	path      TEXT NOT NULL COLLATE NOCASE,
	long_id   TEXT NOT NULL,
	level     INTEGER NOT NULL,
	PRIMARY KEY (database, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_path ON items(database, path);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(database, parent_id);
`

const itemColumns = `database, id, parent_id, name, template, path, long_id, level`

// SQLiteStore is a Store backed by SQLite.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a content store at path.
// If path is empty, creates an in-memory store for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path, empty for in-memory stores.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get returns the item with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, database, id string) (*Item, error) {
	return s.queryOne(ctx, `SELECT `+itemColumns+` FROM items WHERE database = ? AND id = ?`,
		database, id, id)
}

// GetByPath returns the item at the given path.
func (s *SQLiteStore) GetByPath(ctx context.Context, database, path string) (*Item, error) {
	path = normalizePath(path)
	return s.queryOne(ctx, `SELECT `+itemColumns+` FROM items WHERE database = ? AND path = ?`,
		database, path, path)
}

// Children returns the direct children of an item ordered by name.
func (s *SQLiteStore) Children(ctx context.Context, database, id string) ([]*Item, error) {
	return s.queryMany(ctx, `SELECT `+itemColumns+` FROM items WHERE database = ? AND parent_id = ? ORDER BY name`,
		database, id)
}

// Items returns every item of a database ordered by path.
func (s *SQLiteStore) Items(ctx context.Context, database string) ([]*Item, error) {
	return s.queryMany(ctx, `SELECT `+itemColumns+` FROM items WHERE database = ? ORDER BY path`, database)
}

// Put inserts or replaces an item.
func (s *SQLiteStore) Put(ctx context.Context, item *Item) error {
	if item == nil || item.ID == "" || item.Name == "" || item.Database == "" {
		return cerrors.ValidationError("item requires id, name and database", nil)
	}
	if strings.Contains(item.Name, "/") {
		return cerrors.New(cerrors.ErrCodeInvalidPath, fmt.Sprintf("item name %q contains '/'", item.Name), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return cerrors.StoreError("content store is closed", nil)
	}

	if item.ParentID == "" {
		item.Path = "/" + item.Name
		item.LongID = "/" + item.ID
		item.Level = 0
	} else {
		parent, err := s.scanOne(s.db.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE database = ? AND id = ?`, item.Database, item.ParentID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return cerrors.NotFound(fmt.Sprintf("parent %s of %s not found", item.ParentID, item.Name)).
					WithDetail("database", item.Database)
			}
			return cerrors.StoreError("load parent", err)
		}
		item.Path = parent.Path + "/" + item.Name
		item.LongID = parent.LongID + "/" + item.ID
		item.Level = parent.Level + 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Database, item.ID, item.ParentID, item.Name, item.Template, item.Path, item.LongID, item.Level)
	if err != nil {
		return cerrors.StoreError(fmt.Sprintf("put item %s", item.Path), err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// queryOne runs a single-row query; key names the lookup in errors.
func (s *SQLiteStore) queryOne(ctx context.Context, query, database, key string, args ...any) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, cerrors.StoreError("content store is closed", nil)
	}

	it, err := s.scanOne(s.db.QueryRowContext(ctx, query, append([]any{database}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerrors.NotFound(fmt.Sprintf("item %s not found", key)).
			WithDetail("database", database)
	}
	if err != nil {
		return nil, cerrors.StoreError("query item", err)
	}
	return it, nil
}

func (s *SQLiteStore) queryMany(ctx context.Context, query string, args ...any) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, cerrors.StoreError("content store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.StoreError("query items", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := s.scanOne(rows)
		if err != nil {
			return nil, cerrors.StoreError("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.StoreError("iterate items", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanOne(row scanner) (*Item, error) {
	var it Item
	if err := row.Scan(&it.Database, &it.ID, &it.ParentID, &it.Name, &it.Template, &it.Path, &it.LongID, &it.Level); err != nil {
		return nil, err
	}
	return &it, nil
}
