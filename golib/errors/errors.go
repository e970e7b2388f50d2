// Package errors wraps github.com/pkg/errors and adds the error classes used across the music packages.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// Errorf is fmt.Errorf, so %w works.
	Errorf = fmt.Errorf
	// New is Errorf.
	New = Errorf

	// Cause, Is and As come from github.com/pkg/errors.
	Cause = errors.Cause
	Is    = errors.Is
	As    = errors.As
)

// Error classes. Callers match them with Is; the message of the returned error says what went wrong.
var (
	// ErrConfig marks malformed or missing configuration. It surfaces when things are built.
	ErrConfig = errors.New("config error")
	// ErrValidation marks caller supplied values that do not match what was built.
	ErrValidation = errors.New("validation error")
	// ErrRange marks a value past a configured maximum.
	ErrRange = errors.New("range error")
)

func classf(class error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", class, fmt.Sprintf(format, args...))
}

// Configf returns an ErrConfig.
func Configf(format string, args ...interface{}) error {
	return classf(ErrConfig, format, args...)
}

// Validationf returns an ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return classf(ErrValidation, format, args...)
}

// Rangef returns an ErrRange.
func Rangef(format string, args ...interface{}) error {
	return classf(ErrRange, format, args...)
}

// WrapfOrNil prefixes err with a formatted message, keeping err as the cause. It returns nil for a nil err.
func WrapfOrNil(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, fmt.Sprintf(format, args...))
}

// Wrapf is WrapfOrNil, except that a nil err yields a new error with just the message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return Errorf(format, args...)
	}
	return WrapfOrNil(err, format, args...)
}
