// Package apperror defines the typed failures returned by the rule engines.
//
// Every failure carries an entity name and an error key so that a client can
// render a specific message ("project/idnotfound",
// "workGroupMembership/cannotremoveowner") without parsing free text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindBadRequest
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// HTTPStatus maps the kind to the status code the REST layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Entity  string
	Key     string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

// Code is the "entity/key" pair exposed to clients.
func (e *Error) Code() string {
	return e.Entity + "/" + e.Key
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, apperror.ErrForbidden).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Entity == "" && t.Key == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Entity == t.Entity && e.Key == t.Key
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrConflict        = &Error{Kind: KindConflict}
)

func NotFound(entity, key, msg string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Key: key, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Entity: "user", Key: "unauthenticated", Message: msg}
}

func Forbidden(entity, key, msg string) *Error {
	return &Error{Kind: KindForbidden, Entity: entity, Key: key, Message: msg}
}

func BadRequest(entity, key, msg string) *Error {
	return &Error{Kind: KindBadRequest, Entity: entity, Key: key, Message: msg}
}

func Conflict(entity, key, msg string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Key: key, Message: msg}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or 0 for errors outside the taxonomy.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}
