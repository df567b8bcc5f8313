// Package apperr defines the error taxonomy shared by the tracking and
// enrichment layers and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
)

// Kind classifies an error for propagation and response decisions.
type Kind int

const (
	// KindFatal is the zero value: anything unclassified is treated as fatal.
	KindFatal Kind = iota
	KindAuthentication
	KindValidation
	KindProvider
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindProvider:
		return "provider"
	case KindNotFound:
		return "not_found"
	default:
		return "fatal"
	}
}

// Error carries a Kind and an optional source (provider name, field name).
type Error struct {
	Kind   Kind
	Source string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Authentication reports a missing or invalid tenant credential.
func Authentication(msg string) error {
	return eris.Wrap(&Error{Kind: KindAuthentication, Msg: msg}, "authenticate")
}

// Validation reports a malformed or missing request field.
func Validation(field, msg string) error {
	return &Error{Kind: KindValidation, Source: field, Msg: msg}
}

// Provider reports an upstream call failure for the named provider.
func Provider(provider string, err error) error {
	return &Error{Kind: KindProvider, Source: provider, Msg: "provider error", Err: err}
}

// NotFound reports that the named source has no record for the lookup.
func NotFound(source, msg string) error {
	return &Error{Kind: KindNotFound, Source: source, Msg: msg}
}

// Fatal wraps an unexpected internal failure.
func Fatal(err error) error {
	return &Error{Kind: KindFatal, Msg: "internal error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain. Errors outside
// the taxonomy are fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus maps an error onto the status code returned at the HTTP edge.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message safe to show the caller. Fatal errors are
// never echoed.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindFatal {
		return "internal error"
	}
	if e.Source != "" && e.Kind == KindValidation {
		return e.Source + " " + e.Msg
	}
	return e.Msg
}
