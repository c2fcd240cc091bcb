package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/auth"
	"github.com/spec-kit/todo-auth/internal/service"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

// AuthHandler exposes the session endpoints. The token only ever travels in
// the cookie; bodies carry the session projection.
type AuthHandler struct {
	auth   *service.AuthService
	cookie auth.CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie auth.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	h.cookie.Set(c, result.Token)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": result.Session})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookie.Set(c, result.Token)
	return c.JSON(fiber.Map{"data": result.Session})
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when the
// store could not be updated.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	err := h.auth.Logout(c.UserContext(), h.cookie.Read(c))
	h.cookie.Clear(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LogoutResponse{Message: "Logged out.", Success: true}})
}

// LogoutAll handles POST /api/auth/logout-all.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication is required.")
	}
	if err := h.auth.LogoutAll(c.UserContext(), principal.ID); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.JSON(fiber.Map{"data": dto.LogoutResponse{Message: "Logged out everywhere.", Success: true}})
}

// Session handles GET /api/auth/session. Anonymous callers get null.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess, err := h.auth.Session(c.UserContext(), h.cookie.Read(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sess})
}
