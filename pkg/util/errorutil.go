package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes attached to every failure so clients can branch on them.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeFormErrors         = "FORM_ERRORS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeServerError        = "SERVER_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	FormErrors map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInvalidInput(message string) error {
	return NewDomainError(CodeInvalidInput, message, http.StatusBadRequest)
}

// NewInvalidCredentials is the single opaque failure for every rejected login.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid credentials.", http.StatusUnauthorized)
}

// NewFormErrors carries every failing field at once, keyed by field name.
func NewFormErrors(fields map[string]string) error {
	return &DomainError{
		Code:       CodeFormErrors,
		Message:    "There were one or more form errors.",
		HTTPStatus: http.StatusBadRequest,
		FormErrors: fields,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeServerError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeServerError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the code carried by err, or SERVER_ERROR.
func CodeOf(err error) string {
	if de := ToDomainError(err); de != nil {
		return de.Code
	}
	return ""
}
