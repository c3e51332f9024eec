package domain

import "strings"

// Todo is a single to-do document. ID is assigned by the store on creation.
type Todo struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// Validate checks the fields a client controls. The task is stored verbatim,
// so only its blankness is checked.
func (t *Todo) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.Task) == "" {
		return NewFieldError(ErrCodeInvalid, "validation failed", FieldError{
			Field:   "task",
			Message: "task is required",
		})
	}
	return nil
}

// NewTodo builds an unsaved, not yet completed todo.
func NewTodo(task string) *Todo {
	return &Todo{Task: task}
}
