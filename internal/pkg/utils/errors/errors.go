// Package errors provides error helpers used across the project.
// It is a drop-in replacement for the standard library package,
// extended with message prefixing.
package errors

import (
	stderrors "errors"
	"fmt"
)

func New(text string) error {
	return stderrors.New(text)
}

func Errorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// PrefixError wraps the error with a contextual prefix.
// The original error remains reachable via Unwrap/Is/As.
func PrefixError(err error, prefix string) error {
	if err == nil {
		panic(New("error cannot be nil"))
	}
	return &prefixedError{prefix: prefix, err: err}
}

func PrefixErrorf(err error, format string, a ...any) error {
	return PrefixError(err, fmt.Sprintf(format, a...))
}

type prefixedError struct {
	prefix string
	err    error
}

func (e *prefixedError) Error() string {
	return e.prefix + ": " + e.err.Error()
}

func (e *prefixedError) Unwrap() error {
	return e.err
}
