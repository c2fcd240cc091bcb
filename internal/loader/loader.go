// Package loader provides request-scoped batching of related lookups.
// A Loaders value caches what it has loaded, so it must never outlive the
// request it was created for; sharing one across requests would leak one
// caller's data into another caller's response.
package loader

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/repository"
)

const (
	localsKey = "request_loaders"
	batchWait = 2 * time.Millisecond
)

type ctxKey struct{}

// UserBatchFinder is the repository capability the user loader needs.
type UserBatchFinder interface {
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
}

// Loaders bundles the loaders of one request.
type Loaders struct {
	Users *dataloader.Loader[string, *domain.User]
}

// New creates a fresh set of loaders.
func New(users UserBatchFinder) *Loaders {
	return &Loaders{
		Users: dataloader.NewBatchedLoader(batchUsers(users), dataloader.WithWait[string, *domain.User](batchWait)),
	}
}

// User loads one user, coalescing with other loads of the same request.
func (l *Loaders) User(ctx context.Context, id string) (*domain.User, error) {
	return l.Users.Load(ctx, id)()
}

// batchUsers resolves keys in order; ids without a row get ErrNotFound.
func batchUsers(users UserBatchFinder) dataloader.BatchFunc[string, *domain.User] {
	return func(ctx context.Context, ids []string) []*dataloader.Result[*domain.User] {
		results := make([]*dataloader.Result[*domain.User], len(ids))

		found, err := users.GetByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*domain.User]{Error: err}
			}
			return results
		}

		byID := make(map[string]*domain.User, len(found))
		for _, u := range found {
			byID[u.ID] = u
		}
		for i, id := range ids {
			if u, ok := byID[id]; ok {
				results[i] = &dataloader.Result[*domain.User]{Data: u}
			} else {
				results[i] = &dataloader.Result[*domain.User]{Error: repository.ErrNotFound}
			}
		}
		return results
	}
}

// WithLoaders attaches l to ctx.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the loaders attached to ctx, or nil.
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(ctxKey{}).(*Loaders)
	return l
}

// Middleware creates new loaders for every request and discards them when
// the request ends.
func Middleware(users UserBatchFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := New(users)
		c.Locals(localsKey, l)
		c.SetUserContext(WithLoaders(c.UserContext(), l))
		return c.Next()
	}
}

// FromFiber returns the loaders of the current request.
func FromFiber(c *fiber.Ctx) *Loaders {
	l, _ := c.Locals(localsKey).(*Loaders)
	return l
}
