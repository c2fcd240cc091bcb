package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/todo-auth/internal/domain"
)

// MemoryDB is an in-process stand-in for Postgres. Users and todos share
// one lock so that deleting a user and its todos is atomic.
type MemoryDB struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
	todos   map[string]domain.Todo
	now     func() time.Time
}

// NewMemoryDB returns an empty database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
		todos:   make(map[string]domain.Todo),
		now:     time.Now,
	}
}

// Users returns a UserRepository over db.
func (db *MemoryDB) Users() UserRepository { return &memoryUsers{db: db} }

// Todos returns a TodoRepository over db.
func (db *MemoryDB) Todos() TodoRepository { return &memoryTodos{db: db} }

type memoryUsers struct{ db *MemoryDB }

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	db := m.db
	db.mu.Lock()
	defer db.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, taken := db.byEmail[email]; taken {
		return ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Email = email
	user.CreatedAt = db.now()
	user.UpdatedAt = user.CreatedAt

	db.users[user.ID] = *user
	db.byEmail[email] = user.ID
	return nil
}

func (m *memoryUsers) Update(_ context.Context, user *domain.User) error {
	db := m.db
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	email := NormalizeEmail(user.Email)
	if owner, taken := db.byEmail[email]; taken && owner != user.ID {
		return ErrDuplicateEmail
	}
	delete(db.byEmail, existing.Email)

	user.Email = email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = db.now()
	db.users[user.ID] = *user
	db.byEmail[email] = user.ID
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	user, ok := m.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	id, ok := m.db.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.db.users[id]
	return &user, nil
}

func (m *memoryUsers) GetByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := m.db.users[id]; ok {
			users = append(users, &user)
		}
	}
	return users, nil
}

func (m *memoryUsers) List(_ context.Context) ([]*domain.User, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	users := make([]*domain.User, 0, len(m.db.users))
	for _, user := range m.db.users {
		user := user
		users = append(users, &user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	db := m.db
	db.mu.Lock()
	defer db.mu.Unlock()

	user, ok := db.users[id]
	if !ok {
		return ErrNotFound
	}
	for todoID, todo := range db.todos {
		if todo.UserID == id {
			delete(db.todos, todoID)
		}
	}
	delete(db.byEmail, user.Email)
	delete(db.users, id)
	return nil
}

type memoryTodos struct{ db *MemoryDB }

func (m *memoryTodos) Create(_ context.Context, todo *domain.Todo) error {
	db := m.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[todo.UserID]; !ok {
		return ErrNotFound
	}
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	todo.CreatedAt = db.now()
	todo.UpdatedAt = todo.CreatedAt
	db.todos[todo.ID] = *todo
	return nil
}

func (m *memoryTodos) GetByID(_ context.Context, id string) (*domain.Todo, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	todo, ok := m.db.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &todo, nil
}

func (m *memoryTodos) ListByUser(_ context.Context, userID string) ([]*domain.Todo, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	var todos []*domain.Todo
	for _, todo := range m.db.todos {
		if todo.UserID == userID {
			todo := todo
			todos = append(todos, &todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

func (m *memoryTodos) Update(_ context.Context, todo *domain.Todo) error {
	db := m.db
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.todos[todo.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = todo.Title
	existing.Body = todo.Body
	existing.Completed = todo.Completed
	existing.UpdatedAt = db.now()
	db.todos[todo.ID] = existing
	*todo = existing
	return nil
}

func (m *memoryTodos) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.db.todos, id)
	return nil
}
