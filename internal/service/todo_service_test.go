package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/repository"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

func newTodoFixture(t *testing.T) (*TodoService, *domain.User, *domain.User) {
	t.Helper()
	db := repository.NewMemoryDB()
	ctx := context.Background()
	owner := &domain.User{Name: "Dave", Email: "dave@x.com", PasswordHash: "x"}
	other := &domain.User{Name: "Ada", Email: "ada@x.com", PasswordHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, db.Users().Create(ctx, owner))
	require.NoError(t, db.Users().Create(ctx, other))
	return NewTodoService(db.Todos()), owner, other
}

func TestTodoService_CreateAndList(t *testing.T) {
	svc, owner, other := newTodoFixture(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, owner, TodoInput{Title: "  milk "})
	require.NoError(t, err)
	assert.Equal(t, "milk", todo.Title)
	assert.Equal(t, owner.ID, todo.UserID)

	mine, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestTodoService_CreateValidates(t *testing.T) {
	svc, owner, _ := newTodoFixture(t)

	_, err := svc.Create(context.Background(), owner, TodoInput{Title: "   "})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, apperrors.CodeFormErrors, de.Code)
	assert.Equal(t, "A title is required.", de.FormErrors["title"])
}

func TestTodoService_OwnerOnly(t *testing.T) {
	svc, owner, admin := newTodoFixture(t)
	ctx := context.Background()
	todo, err := svc.Create(ctx, owner, TodoInput{Title: "milk"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, admin, todo.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	err = svc.Delete(ctx, admin, todo.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = svc.Get(ctx, owner, "not-a-uuid")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	_, err = svc.Get(ctx, owner, uuid.NewString())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, owner, todo.ID))
	_, err = svc.Get(ctx, owner, todo.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func ptr[T any](v T) *T { return &v }

func TestTodoService_Update(t *testing.T) {
	svc, owner, _ := newTodoFixture(t)
	ctx := context.Background()
	todo, err := svc.Create(ctx, owner, TodoInput{Title: "milk", Body: "2l"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, todo.ID, TodoUpdateInput{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "milk", updated.Title)
	assert.Equal(t, "2l", updated.Body)

	updated, err = svc.Update(ctx, owner, todo.ID, TodoUpdateInput{Title: ptr("  oat milk "), Body: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "oat milk", updated.Title)
	assert.Empty(t, updated.Body)
	assert.True(t, updated.Completed)

	stored, err := svc.Get(ctx, owner, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Title, stored.Title)
	assert.True(t, stored.Completed)
}

func TestTodoService_UpdateChecksInOrder(t *testing.T) {
	svc, owner, other := newTodoFixture(t)
	ctx := context.Background()
	todo, err := svc.Create(ctx, owner, TodoInput{Title: "milk"})
	require.NoError(t, err)
	blank := TodoUpdateInput{Title: ptr("  ")}

	_, err = svc.Update(ctx, owner, "not-a-uuid", blank)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	_, err = svc.Update(ctx, owner, uuid.NewString(), blank)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = svc.Update(ctx, other, todo.ID, blank)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = svc.Update(ctx, owner, todo.ID, blank)
	de := apperrors.ToDomainError(err)
	require.Equal(t, apperrors.CodeFormErrors, de.Code)
	assert.Equal(t, "A title is required.", de.FormErrors["title"])

	stored, err := svc.Get(ctx, owner, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk", stored.Title)
}
