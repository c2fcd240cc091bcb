package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/auth"
	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/service"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

// UsersHandler exposes the current-user and admin endpoints.
type UsersHandler struct {
	auth   *service.AuthService
	cookie auth.CookieConfig
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, cookie auth.CookieConfig) *UsersHandler {
	return &UsersHandler{auth: authService, cookie: cookie}
}

func principal(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Authentication is required.")
	}
	return user, nil
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), user.ID, service.ProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// DeleteMe handles DELETE /api/users/me.
func (h *UsersHandler) DeleteMe(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.UserContext(), user.ID); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// List handles GET /api/admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// UpdateRole handles PATCH /api/admin/users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	user, err := h.auth.UpdateRole(c.UserContext(), actor.ID, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
