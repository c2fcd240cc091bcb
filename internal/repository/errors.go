package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the lower-cased email is already taken.
	ErrDuplicateEmail = errors.New("email already exists")
)
