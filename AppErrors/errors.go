// Package AppErrors holds the error kinds services return and the HTTP status
// each one maps to.
package AppErrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a domain failure with a message that is safe to show the caller.
// Data is merged into the JSON error body.
type Error struct {
	Kind    Kind
	Message string
	Data    map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a value to the response body and returns e.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	e.Data[key] = value
	return e
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(KindUnauthenticated, format, args...)
}

// Internal wraps an unexpected failure. Its message never reaches the client.
func Internal(err error, format string, args ...interface{}) *Error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// Wrap returns err unchanged when it already is an *Error, otherwise an
// Internal error carrying it.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Internal(err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to its response code. Conflicts answer 400, matching
// the documented contract for double start and duplicate registration.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
