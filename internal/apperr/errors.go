package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION"
	CodeUnauthorized   Code = "UNAUTHENTICATED"
	CodeNotParticipant Code = "NOT_PARTICIPANT"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT_STATE"
	CodeExpired        Code = "EXPIRED"
	CodeLimit          Code = "LIMIT_REACHED"
	CodeOversize       Code = "OVERSIZE"
	CodeMediaType      Code = "MEDIA_TYPE"
	CodeConcurrency    Code = "CONCURRENCY"
	CodeDependency     Code = "DEPENDENCY"
	CodeInternal       Code = "INTERNAL"
)

// Error is the unified error contract across layers.
type Error struct {
	Code    Code
	Op      string // operation name, ex: "SessionService.Accept"
	Message string // safe message for the caller
	Err     error  // wrapped error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &Error{Code: code, Op: op, Message: msg, Err: err}
}

func New(code Code, op, msg string) error {
	return &Error{Code: code, Op: op, Message: msg}
}

func IsCode(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the error's code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// SafeMessage returns the caller-facing message, falling back to a generic
// string for foreign errors so internals never leak.
func SafeMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal error"
}

func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeValidation:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeNotParticipant:
			return http.StatusForbidden
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict, CodeLimit:
			return http.StatusConflict
		case CodeExpired:
			return http.StatusGone
		case CodeOversize:
			return http.StatusRequestEntityTooLarge
		case CodeMediaType:
			return http.StatusUnsupportedMediaType
		case CodeConcurrency:
			return http.StatusConflict
		case CodeDependency:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
