package dto

import (
	"time"

	"github.com/spec-kit/todo-auth/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserUpdateRequest edits the caller's own profile; absent fields are kept.
type UserUpdateRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutResponse is returned by logout whether or not a session existed.
type LogoutResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// RoleUpdateRequest payload for admin role changes.
type RoleUpdateRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse is the public projection of a principal.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserSummary is embedded where a user is referenced from another resource.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewUserResponse maps a domain user, dropping the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NewUserResponses maps a list.
func NewUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
