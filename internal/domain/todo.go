package domain

import "time"

// Todo is a resource owned by exactly one user.
type Todo struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
