package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const todoSchema = `
CREATE TABLE IF NOT EXISTS todos (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	task       TEXT NOT NULL,
	priority   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteTodoStore keeps TODO records in a single SQLite table, ordered by
// insertion.
type SQLiteTodoStore struct {
	db *sql.DB
}

// NewSQLiteTodoStore opens (or creates) the database at path.
func NewSQLiteTodoStore(path string) (*SQLiteTodoStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create todo directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open todo database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(todoSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create todo schema: %w", err)
	}

	return &SQLiteTodoStore{db: db}, nil
}

// Append inserts item, suffixing its ID when the base ID is already stored.
func (s *SQLiteTodoStore) Append(item TodoItem) (TodoItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// LIKE over-matches ('_' is a wildcard); exact membership is checked below.
	rows, err := tx.Query(`SELECT id FROM todos WHERE id = ? OR id LIKE ?`, item.ID, item.ID+"_%")
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to query todo ids: %w", err)
	}
	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return TodoItem{}, fmt.Errorf("failed to scan todo id: %w", err)
		}
		ids[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return TodoItem{}, fmt.Errorf("failed to read todo ids: %w", err)
	}

	item.ID = uniqueID(item.ID, func(id string) bool { return ids[id] })

	_, err = tx.Exec(
		`INSERT INTO todos (id, task, priority, created_at, completed) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.Task, item.Priority, item.CreatedAt.Format(time.RFC3339Nano), item.Completed,
	)
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to insert todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TodoItem{}, fmt.Errorf("failed to commit todo: %w", err)
	}
	return item, nil
}

// List returns every record in insertion order
func (s *SQLiteTodoStore) List() ([]TodoItem, error) {
	rows, err := s.db.Query(`SELECT id, task, priority, created_at, completed FROM todos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	items := []TodoItem{}
	for rows.Next() {
		var (
			item    TodoItem
			created string
		)
		if err := rows.Scan(&item.ID, &item.Task, &item.Priority, &created, &item.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		item.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at for todo %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close closes the database
func (s *SQLiteTodoStore) Close() error {
	return s.db.Close()
}
