package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the failure categories the
// scanning pipeline distinguishes. Callers branch on Kind rather than
// on concrete error values.
type Kind string

const (
	// KindValidation marks malformed input: out-of-range confidence,
	// non-positive dimensions, bad email/phone/website formats.
	KindValidation Kind = "validation"

	// KindSecurity marks rejected content such as script-injection markers.
	KindSecurity Kind = "security"

	// KindDataSource marks persistence or cache backend failures.
	KindDataSource Kind = "data_source"

	// KindProcessing marks failed recognition or parsing calls.
	KindProcessing Kind = "processing"

	// KindUnsupportedFormat marks image formats an engine cannot decode.
	KindUnsupportedFormat Kind = "unsupported_format"
)

// Error is the typed error used across the module. The internal message
// may carry diagnostic detail; the user message never includes raw field
// values, secrets, or other sensitive content.
type Error struct {
	Kind  Kind
	Field string // offending field name, when known
	Msg   string // internal diagnostic message
	User  string // safe user-facing message; Kind-derived default when empty
	cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is/As chains. Sentinel
// comparisons stay identity-based: two distinct errors of the same Kind
// never satisfy errors.Is. Kind classification goes through IsKind/KindOf.
func (e *Error) Unwrap() error { return e.cause }

// UserMessage returns the message safe to surface to end users.
func (e *Error) UserMessage() string {
	if e.User != "" {
		return e.User
	}
	switch e.Kind {
	case KindValidation:
		return "The provided data is invalid."
	case KindSecurity:
		return "The provided data was rejected for security reasons."
	case KindDataSource:
		return "A storage operation failed. Please try again."
	case KindProcessing:
		return "Processing failed. Please try again."
	case KindUnsupportedFormat:
		return "The image format is not supported."
	}
	return "An unexpected error occurred."
}

// New creates a typed error with an internal message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a typed error with a formatted internal message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// WithField records the offending field name.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithUser overrides the user-facing message.
func (e *Error) WithUser(msg string) *Error {
	e.User = msg
	return e
}

// Validation is shorthand for a field validation failure.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

// Security is shorthand for rejected malicious content.
func Security(field, msg string) *Error {
	return &Error{Kind: KindSecurity, Field: field, Msg: msg}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error kind to an HTTP status code for API responses.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindSecurity:
		return http.StatusBadRequest
	case KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case KindDataSource:
		return http.StatusServiceUnavailable
	case KindProcessing:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
