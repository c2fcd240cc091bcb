package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-auth/internal/domain"
)

const principalKey = "auth_principal"

type principalCtxKey struct{}

// WithPrincipal attaches the authenticated user to ctx.
func WithPrincipal(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, user)
}

// PrincipalFrom returns the user attached by the authenticator.
func PrincipalFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(principalCtxKey{}).(*domain.User)
	return user, ok && user != nil
}

// PrincipalFromContext retrieves the authenticated user of the request.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

func attachPrincipal(c *fiber.Ctx, user *domain.User) {
	c.Locals(principalKey, user)
	c.SetUserContext(WithPrincipal(c.UserContext(), user))
}
