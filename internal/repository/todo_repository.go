package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/persistence"
)

// TodoRepository persists todos. Ownership checks live in the service layer.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	GetByID(ctx context.Context, id string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Todo, error)
	// Update writes title, body and completed. Ownership is not changed.
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id string) error
}

type todoRepository struct {
	db persistence.DB
}

// NewTodoRepository returns a Postgres-backed implementation.
func NewTodoRepository(db persistence.DB) TodoRepository {
	return &todoRepository{db: db}
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Body,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	const query = `
        INSERT INTO todos (id, user_id, title, body, completed)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	return r.db.QueryRow(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Body,
		todo.Completed,
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)
}

func (r *todoRepository) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	const query = `
        SELECT id, user_id, title, body, completed, created_at, updated_at
        FROM todos WHERE id=$1`
	return scanTodo(r.db.QueryRow(ctx, query, id))
}

func (r *todoRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Todo, error) {
	const query = `
        SELECT id, user_id, title, body, completed, created_at, updated_at
        FROM todos WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	const query = `
        UPDATE todos SET title=$1, body=$2, completed=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING user_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		todo.Title,
		todo.Body,
		todo.Completed,
		todo.ID,
	).Scan(&todo.UserID, &todo.CreatedAt, &todo.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
