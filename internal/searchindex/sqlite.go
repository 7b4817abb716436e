package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// SQLiteIndex stores documents in an SQLite FTS5 table.
type SQLiteIndex struct {
	base

	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens the FTS5 index at path, creating it when missing.
// If path is empty, creates an in-memory index.
func NewSQLiteIndex(name, path string, crawlers []resolver.Crawler) (*SQLiteIndex, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	stmts := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents USING fts5(
			doc_id UNINDEXED,
			database UNINDEXED,
			path,
			name,
			template UNINDEXED,
			tokenize='unicode61'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize index %s: %w", name, err)
		}
	}

	return &SQLiteIndex{
		base: base{name: name, typ: TypeSQLite, crawlers: crawlers},
		db:   db,
		path: path,
	}, nil
}

// Add stores or replaces a document.
func (s *SQLiteIndex) Add(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("index is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 virtual tables don't support REPLACE
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("failed to delete existing document %s: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents(doc_id, database, path, name, template) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Database, strings.ReplaceAll(doc.Path, "/", " "), doc.Name, doc.Template); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	return tx.Commit()
}

// Search matches query terms against name and path, best bm25 score first.
func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []string{}, nil
	}
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id FROM documents
		WHERE documents MATCH ?
		ORDER BY bm25(documents)
		LIMIT ?`, strings.Join(terms, " "), limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") {
			return []string{}, nil
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of documents.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
