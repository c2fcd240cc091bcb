package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-auth/internal/api/http/handlers"
	"github.com/spec-kit/todo-auth/internal/auth"
	"github.com/spec-kit/todo-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Todos         *handlers.TodosHandler
	Authenticator *auth.Authenticator
	// Loaders installs the request-scoped user loader.
	Loaders fiber.Handler
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")
	if cfg.Loaders != nil {
		api.Use(cfg.Loaders)
	}
	authn := cfg.Authenticator

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Post("/logout-all", authn.Authenticate(cfg.Auth.LogoutAll))

	users := api.Group("/users", authn.Handle)
	users.Get("/me", cfg.Users.Me)
	users.Patch("/me", cfg.Users.UpdateMe)
	users.Delete("/me", cfg.Users.DeleteMe)

	admin := api.Group("/admin", authn.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Users.List)
	admin.Patch("/users/:id/role", cfg.Users.UpdateRole)

	api.Get("/todos", authn.Authenticate(cfg.Todos.List))
	api.Post("/todos", authn.Authenticate(cfg.Todos.Create))
	api.Get("/todos/:id", authn.Authenticate(cfg.Todos.Get))
	api.Patch("/todos/:id", authn.Authenticate(cfg.Todos.Update))
	api.Delete("/todos/:id", authn.Authenticate(cfg.Todos.Delete))
}
