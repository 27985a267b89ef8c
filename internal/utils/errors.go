package utils

import (
	"errors"
	"fmt"
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// Message returns the outermost AppError message, or err.Error() when the
// chain carries none. Transports use it for client-facing text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var app *AppError
	if errors.As(err, &app) {
		if app.Err != nil {
			return fmt.Sprintf("%s: %v", app.Msg, app.Err)
		}
		return app.Msg
	}
	return err.Error()
}
