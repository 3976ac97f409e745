package tools

import (
	"fmt"
	"strings"
	"time"

	"toolchat/storage"
)

// DefaultPriority applies when create_todo_item gets no priority.
const DefaultPriority = "medium"

var priorities = []string{"high", "medium", "low"}

// normalizePriority trims and lower-cases p. Empty means DefaultPriority;
// anything outside the enum is rejected rather than coerced.
func normalizePriority(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return DefaultPriority, nil
	}
	for _, allowed := range priorities {
		if p == allowed {
			return p, nil
		}
	}
	return "", &ToolArgumentError{
		Tool:     NameCreateTodo,
		Argument: "priority",
		Reason:   fmt.Sprintf("%q is not one of %s", p, strings.Join(priorities, ", ")),
	}
}

func createTodo(store storage.TodoStore, c CreateTodoCall, now time.Time) (storage.TodoItem, error) {
	task := strings.TrimSpace(c.Task)
	if task == "" {
		return storage.TodoItem{}, &ToolArgumentError{Tool: NameCreateTodo, Argument: "task", Reason: "task must not be empty"}
	}
	priority, err := normalizePriority(c.Priority)
	if err != nil {
		return storage.TodoItem{}, err
	}

	item, err := store.Append(storage.TodoItem{
		ID:        storage.NewTodoID(now),
		Task:      task,
		Priority:  priority,
		CreatedAt: now,
	})
	if err != nil {
		return storage.TodoItem{}, fmt.Errorf("failed to save todo: %w", err)
	}
	return item, nil
}

func formatTodo(item storage.TodoItem) string {
	return fmt.Sprintf("Created TODO item:\nID: %s\nTask: %s\nPriority: %s\nCreated at: %s",
		item.ID, item.Task, item.Priority, item.CreatedAt.Format(time.RFC3339))
}
