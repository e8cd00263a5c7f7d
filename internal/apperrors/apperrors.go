package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error and decides the HTTP status it is reported with.
type Kind int

const (
	Internal Kind = iota
	NotFound
	InvalidArgument
	InvalidReference
	UnsupportedFormat
	ParseError
	EmptyInput
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidReference:
		return "invalid_reference"
	case UnsupportedFormat:
		return "unsupported_format"
	case ParseError:
		return "parse_error"
	case EmptyInput:
		return "empty_input"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code equivalent of the kind.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case InvalidArgument, InvalidReference, ParseError, EmptyInput:
		return http.StatusBadRequest
	case UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type surfaced by the catalog services.
type Error struct {
	Kind    Kind
	Message string
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

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// StatusOf reports the HTTP status for err.
func StatusOf(err error) int {
	return KindOf(err).Status()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// MessageOf returns the user facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
