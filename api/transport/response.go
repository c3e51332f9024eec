package transport

import (
	"encoding/json"

	"github.com/fastygo/todo/domain"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope carries the status discriminator shared by every response. The
// operation payload sits next to it at the top level.
type Envelope struct {
	Status  string              `json:"status"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// TodoListResponse is returned by GET /todos.
type TodoListResponse struct {
	Envelope
	Todos []domain.Todo `json:"todos"`
}

// TodoResponse is returned by POST /todos and PUT /todos/{id}.
type TodoResponse struct {
	Envelope
	Todo *domain.Todo `json:"todo"`
}

// NewSuccess returns a success envelope.
func NewSuccess(message string) Envelope {
	return Envelope{
		Status:  StatusSuccess,
		Message: message,
	}
}

// NewError returns an error envelope with optional per-field details.
func NewError(code string, message string, errors []domain.FieldError) Envelope {
	return Envelope{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Errors:  errors,
	}
}

// NewTodoList wraps todos in a success envelope. A nil slice is sent as [].
func NewTodoList(todos []domain.Todo) TodoListResponse {
	if todos == nil {
		todos = []domain.Todo{}
	}
	return TodoListResponse{Envelope: NewSuccess(""), Todos: todos}
}

// NewTodo wraps a single todo in a success envelope.
func NewTodo(todo *domain.Todo) TodoResponse {
	return TodoResponse{Envelope: NewSuccess(""), Todo: todo}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
