package conversation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures reported to users.
type ErrorKind string

const (
	KindUnauthorized   ErrorKind = "unauthorized"
	KindTransport      ErrorKind = "transport_failure"
	KindDuplicateMedia ErrorKind = "duplicate_media"
	KindNotFound       ErrorKind = "not_found"
	KindInvalidInput   ErrorKind = "invalid_input"
)

// Error is a classified failure of one operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is used as err_code in handler summary logs.
func (e *Error) Code() string { return string(e.Kind) }

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of a classified error, or "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
