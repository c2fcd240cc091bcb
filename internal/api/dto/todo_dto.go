package dto

import (
	"time"

	"github.com/spec-kit/todo-auth/internal/domain"
)

// TodoCreateRequest payload for new todos.
type TodoCreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// TodoUpdateRequest is a partial update; absent fields are left unchanged.
type TodoUpdateRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Completed *bool   `json:"completed"`
}

// TodoResponse is a todo with its owner resolved.
type TodoResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Completed bool         `json:"completed"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"owner,omitempty"`
}

// NewTodoResponse maps a domain todo. owner may be nil.
func NewTodoResponse(t *domain.Todo, owner *domain.User) TodoResponse {
	resp := TodoResponse{
		ID:        t.ID,
		Title:     t.Title,
		Body:      t.Body,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if owner != nil {
		resp.Owner = &UserSummary{ID: owner.ID, Name: owner.Name}
	}
	return resp
}
