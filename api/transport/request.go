package transport

// CreateTodoRequest is the body of POST /todos.
type CreateTodoRequest struct {
	Task string `json:"task"`
}

// UpdateTodoRequest is the body of PUT /todos/{id}. Completed is a pointer so
// a missing field can be told apart from false.
type UpdateTodoRequest struct {
	Completed *bool `json:"completed"`
}
