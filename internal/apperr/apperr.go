// Package apperr carries the two error kinds the HTTP boundary maps onto
// status classes: client errors (caller-fixable) and server errors
// (internal failures and broken invariants).
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindClient Kind = iota
	KindServer
)

type Error struct {
	kind   Kind
	status int
	msg    string
	cause  error
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() Kind {
	return e.kind
}

func Client(msg string) error {
	return &Error{kind: KindClient, status: http.StatusBadRequest, msg: msg}
}

func Clientf(format string, args ...interface{}) error {
	return Client(errors.Errorf(format, args...).Error())
}

func NotFound(msg string) error {
	return &Error{kind: KindClient, status: http.StatusNotFound, msg: msg}
}

func Conflict(msg string) error {
	return &Error{kind: KindClient, status: http.StatusConflict, msg: msg}
}

func Server(msg string) error {
	return &Error{kind: KindServer, status: http.StatusInternalServerError, msg: msg, cause: errors.New(msg)}
}

// Internal wraps an unexpected failure as a server error. Client errors pass
// through unchanged so the boundary keeps their status, which is the
// propagation rule every service follows.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		kind:   KindServer,
		status: http.StatusInternalServerError,
		msg:    msg,
		cause:  errors.Wrap(err, msg),
	}
}

func IsClient(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == KindClient
}

// HTTPStatus maps an error to the response status. Anything that is not an
// *Error is treated as a server error.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.status
	}
	return http.StatusInternalServerError
}
