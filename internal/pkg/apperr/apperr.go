// Package apperr provides typed application errors and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"qwiktest/internal/pkg/validation"
)

type Type string

const (
	TypeBadRequest   Type = "bad_request"
	TypeValidation   Type = "validation"
	TypeNotFound     Type = "not_found"
	TypeUnauthorized Type = "unauthorized"
	TypeForbidden    Type = "forbidden"
	TypeConflict     Type = "conflict"
	TypeInternal     Type = "internal"
	TypeExternal     Type = "external"
)

// Error is a structured error carrying its category, a client-safe message
// and optional per-field validation messages.
type Error struct {
	Type    Type
	Message string
	Cause   error
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeBadRequest:
		return http.StatusBadRequest
	case TypeValidation:
		return http.StatusUnprocessableEntity
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	case TypeConflict:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithField attaches a field-level message (chainable).
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

func BadRequest(message string) *Error {
	return &Error{Type: TypeBadRequest, Message: message}
}

func Validation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Type: TypeForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Type: TypeConflict, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

func External(message string, cause error) *Error {
	return &Error{Type: TypeExternal, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given type.
func Is(err error, t Type) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Type == t
}

// From converts any error into an *Error. Record-not-found errors become
// not_found, validator errors become validation with per-field messages and
// everything else is internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Type: TypeNotFound, Message: "resource not found", Cause: err}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		out := &Error{Type: TypeValidation, Message: "the given data was invalid", Cause: err}
		for _, fe := range validationErrs {
			out.WithField(fe.Field(), validation.Message(fe))
		}
		return out
	}

	return Internal("internal server error", err)
}
