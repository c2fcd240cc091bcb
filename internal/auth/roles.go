package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-auth/internal/domain"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

// Authorize wraps next with a role check. It must be composed after
// Authenticate: without a principal it fails UNAUTHORIZED, with the wrong
// role it fails FORBIDDEN.
func Authorize(role domain.Role, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(unauthenticatedMessage)
		}
		if principal.Role != role {
			return apperrors.NewForbidden("Authorization is required.")
		}
		return next(c)
	}
}

// RequireRole is Authorize as group middleware.
func RequireRole(role domain.Role) fiber.Handler {
	return Authorize(role, func(c *fiber.Ctx) error { return c.Next() })
}
