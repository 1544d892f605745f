package errors

import (
	"fmt"
)

// baseError is a plain error message. It's a value type so that errors built
// in tests compare equal to the errors returned by the code under test.
type baseError struct {
	msg string
}

func (err baseError) Error() string {
	return err.msg
}

// New returns an error with the given message.
func New(msg string, args ...interface{}) error {
	if len(args) != 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return baseError{msg}
}

type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext annotates `err` with a short description of what was being done
// when the error occurred. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

// FriendlyError is an error whose message is suitable for showing directly to
// the operator, without the context that was added while it propagated.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates an error whose message is printed as-is when it
// causes confgen to exit.
func NewFriendlyError(template string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(template, args...)}
}

// RootCause returns the innermost error wrapped by `err`.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// GetPrintableMessage returns the message that should be shown to the
// operator for `err`. If a friendly error is wrapped anywhere in `err`, its
// message is used. Otherwise, the full error chain is printed.
func GetPrintableMessage(err error) string {
	if friendly, ok := RootCause(err).(FriendlyError); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
