package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/repository"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

var todoMessages = fieldMessages{
	"title": {"required": "A title is required.", "max": "Must be at most 200 characters."},
	"body":  {"max": "Must be at most 5000 characters."},
}

// TodoInput is the create-todo form.
type TodoInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=5000"`
}

var todoUpdateMessages = fieldMessages{
	"title": {"min": "A title is required.", "max": "Must be at most 200 characters."},
	"body":  {"max": "Must be at most 5000 characters."},
}

// TodoUpdateInput is a partial update. Nil fields are left unchanged.
type TodoUpdateInput struct {
	Title     *string `json:"title" validate:"omitnil,min=1,max=200"`
	Body      *string `json:"body" validate:"omitnil,max=5000"`
	Completed *bool   `json:"completed"`
}

// TodoService exposes todos to their owner only. Admins get no bypass.
type TodoService struct {
	todos    repository.TodoRepository
	validate *validator.Validate
}

// NewTodoService builds the service.
func NewTodoService(todos repository.TodoRepository) *TodoService {
	return &TodoService{todos: todos, validate: newValidator()}
}

// Create adds a todo owned by owner.
func (s *TodoService) Create(ctx context.Context, owner *domain.User, input TodoInput) (*domain.Todo, error) {
	input.Title = strings.TrimSpace(input.Title)
	fields, err := collectFormErrors(s.validate, input, todoMessages)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := formErrorsOrNil(fields); err != nil {
		return nil, err
	}

	todo := &domain.Todo{UserID: owner.ID, Title: input.Title, Body: input.Body}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return todo, nil
}

// List returns the owner's todos.
func (s *TodoService) List(ctx context.Context, owner *domain.User) ([]*domain.Todo, error) {
	todos, err := s.todos.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return todos, nil
}

// Get returns one todo of the owner.
func (s *TodoService) Get(ctx context.Context, owner *domain.User, id string) (*domain.Todo, error) {
	return s.owned(ctx, owner, id)
}

// Update changes title, body or completed on one todo of the owner. The id,
// existence and ownership checks run before the form is validated.
func (s *TodoService) Update(ctx context.Context, owner *domain.User, id string, input TodoUpdateInput) (*domain.Todo, error) {
	todo, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	fields, err := collectFormErrors(s.validate, input, todoUpdateMessages)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := formErrorsOrNil(fields); err != nil {
		return nil, err
	}

	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Body != nil {
		todo.Body = *input.Body
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, mapRepoError(err, "todo")
	}
	return todo, nil
}

// Delete removes one todo of the owner.
func (s *TodoService) Delete(ctx context.Context, owner *domain.User, id string) error {
	todo, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.todos.Delete(ctx, todo.ID); err != nil {
		return mapRepoError(err, "todo")
	}
	return nil
}

func (s *TodoService) owned(ctx context.Context, owner *domain.User, id string) (*domain.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewInvalidInput("Invalid todo id.")
	}
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "todo")
	}
	if todo.UserID != owner.ID {
		return nil, apperrors.NewForbidden("You do not own this todo.")
	}
	return todo, nil
}
