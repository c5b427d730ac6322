package permissions

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteStore is a Store backed by a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and prepares the
// permissions table. An empty path opens an in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an existing database handle. Call Migrate before use
// unless the schema already exists.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Migrate creates the permissions table if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS permissions (
			subject TEXT NOT NULL,
			node TEXT NOT NULL,
			granted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (subject, node)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create permissions table: %w", err)
	}
	return nil
}

// Grant implements Store.
func (s *SQLiteStore) Grant(ctx context.Context, subject, node string) error {
	if err := validate(subject, node); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO permissions (subject, node) VALUES (?, ?) ON CONFLICT(subject, node) DO NOTHING`,
		subject, normalize(node))
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// Revoke implements Store.
func (s *SQLiteStore) Revoke(ctx context.Context, subject, node string) error {
	if err := validate(subject, node); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE subject = ? AND node = ?`,
		subject, normalize(node))
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

// Nodes implements Store.
func (s *SQLiteStore) Nodes(ctx context.Context, subject string) ([]string, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT node FROM permissions WHERE subject = ? ORDER BY node`,
		subject)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	nodes := []string{}
	for rows.Next() {
		var node string
		if err := rows.Scan(&node); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return nodes, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
