package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"toolchat/config"
)

// TodoIDLayout is the clock-derived part of a TODO identifier.
const TodoIDLayout = "20060102_150405"

// TodoItem is one persisted TODO record
type TodoItem struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	Completed bool      `json:"completed"`
}

// TodoStore appends TODO records to an ordered, append-only sequence.
type TodoStore interface {
	// Append stores item at the end of the sequence. item.ID is used as the
	// base identifier and suffixed when it collides with a stored record; the
	// stored record is returned.
	Append(item TodoItem) (TodoItem, error)
	List() ([]TodoItem, error)
	Close() error
}

// NewTodoStore opens the backend named by kind ("json" or "sqlite") at path.
func NewTodoStore(kind, path string) (TodoStore, error) {
	switch kind {
	case "", "json":
		return NewJSONTodoStore(path)
	case "sqlite":
		return NewSQLiteTodoStore(path)
	default:
		return nil, fmt.Errorf("unknown todo backend %q", kind)
	}
}

// NewTodoID derives the base identifier for a record created at t.
func NewTodoID(t time.Time) string {
	return t.Format(TodoIDLayout)
}

// uniqueID returns base, or base_2, base_3, ... whichever is not taken.
func uniqueID(base string, taken func(id string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		id := base + "_" + strconv.Itoa(n)
		if !taken(id) {
			return id
		}
	}
}

// JSONTodoStore keeps the whole sequence in a single JSON array file.
type JSONTodoStore struct {
	path string
	now  func() time.Time
}

// NewJSONTodoStore creates a store backed by the file at path. The file is
// created on the first Append.
func NewJSONTodoStore(path string) (*JSONTodoStore, error) {
	// 0700 - the list may contain personal notes
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create todo directory: %w", err)
	}
	return &JSONTodoStore{path: path, now: time.Now}, nil
}

// Path returns the backing file
func (s *JSONTodoStore) Path() string {
	return s.path
}

// List reads the stored records. A missing file is an empty list. A file
// that cannot be decoded is moved aside to <path>.<timestamp>.bak and also
// treated as empty, so the next Append starts a fresh list instead of
// failing forever. Earlier backups are never overwritten.
func (s *JSONTodoStore) List() ([]TodoItem, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []TodoItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read todo file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []TodoItem{}, nil
	}

	var items []TodoItem
	if err := json.Unmarshal(data, &items); err != nil {
		backup := s.backupPath()
		if err := os.Rename(s.path, backup); err != nil {
			return nil, fmt.Errorf("failed to move corrupt todo file aside: %w", err)
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Storage] corrupt todo file moved to %s: %v", backup, err)
		}
		return []TodoItem{}, nil
	}
	if items == nil {
		items = []TodoItem{}
	}
	return items, nil
}

// Append performs a read-modify-write of the whole file.
func (s *JSONTodoStore) Append(item TodoItem) (TodoItem, error) {
	items, err := s.List()
	if err != nil {
		return TodoItem{}, err
	}

	ids := make(map[string]bool, len(items))
	for _, it := range items {
		ids[it.ID] = true
	}
	item.ID = uniqueID(item.ID, func(id string) bool { return ids[id] })
	items = append(items, item)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Task text is frequently Japanese; keep it readable in the file.
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return TodoItem{}, fmt.Errorf("failed to marshal todo list: %w", err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return TodoItem{}, fmt.Errorf("failed to write todo file: %w", err)
	}
	return item, nil
}

func (s *JSONTodoStore) backupPath() string {
	base := s.path + "." + s.now().Format(TodoIDLayout)
	id := uniqueID(base, func(candidate string) bool {
		_, err := os.Stat(candidate + ".bak")
		return err == nil
	})
	return id + ".bak"
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place, so a crash leaves either the old or the new list.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp opens the file 0600.
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Close is a no-op; the file is not held open between calls.
func (s *JSONTodoStore) Close() error {
	return nil
}
