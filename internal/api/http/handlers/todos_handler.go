package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/loader"
	"github.com/spec-kit/todo-auth/internal/service"
	apperrors "github.com/spec-kit/todo-auth/pkg/util"
)

// TodosHandler exposes the owner's todos.
type TodosHandler struct {
	todos *service.TodoService
}

// NewTodosHandler constructs handler.
func NewTodosHandler(todos *service.TodoService) *TodosHandler {
	return &TodosHandler{todos: todos}
}

// respond resolves every owner through the request loader: all loads are
// issued before any is awaited, so a page of todos costs one user query.
func (h *TodosHandler) respond(c *fiber.Ctx, todos []*domain.Todo) ([]dto.TodoResponse, error) {
	loaders := loader.FromFiber(c)
	thunks := make([]dataloader.Thunk[*domain.User], len(todos))
	if loaders != nil {
		for i, todo := range todos {
			thunks[i] = loaders.Users.Load(c.UserContext(), todo.UserID)
		}
	}

	out := make([]dto.TodoResponse, 0, len(todos))
	for i, todo := range todos {
		var owner *domain.User
		if thunks[i] != nil {
			user, err := thunks[i]()
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			owner = user
		}
		out = append(out, dto.NewTodoResponse(todo, owner))
	}
	return out, nil
}

// List handles GET /api/todos.
func (h *TodosHandler) List(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	todos, err := h.todos.List(c.UserContext(), user)
	if err != nil {
		return err
	}
	out, err := h.respond(c, todos)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}

// Create handles POST /api/todos.
func (h *TodosHandler) Create(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.TodoCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	todo, err := h.todos.Create(c.UserContext(), user, service.TodoInput{Title: req.Title, Body: req.Body})
	if err != nil {
		return err
	}
	out, err := h.respond(c, []*domain.Todo{todo})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": out[0]})
}

// Get handles GET /api/todos/:id.
func (h *TodosHandler) Get(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	todo, err := h.todos.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	out, err := h.respond(c, []*domain.Todo{todo})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out[0]})
}

// Update handles PATCH /api/todos/:id.
func (h *TodosHandler) Update(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.TodoUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body.")
	}

	todo, err := h.todos.Update(c.UserContext(), user, c.Params("id"), service.TodoUpdateInput{
		Title:     req.Title,
		Body:      req.Body,
		Completed: req.Completed,
	})
	if err != nil {
		return err
	}
	out, err := h.respond(c, []*domain.Todo{todo})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out[0]})
}

// Delete handles DELETE /api/todos/:id.
func (h *TodosHandler) Delete(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.todos.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
