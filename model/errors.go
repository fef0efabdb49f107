package model

import "fmt"

var (
	ErrNotFound       = fmt.Errorf("not found")
	ErrAlreadyExists  = fmt.Errorf("already exists")
	ErrBuiltInRole    = fmt.Errorf("built-in role is protected")
	ErrHasDependents  = fmt.Errorf("has dependent objects")
	ErrAlreadyRevoked = fmt.Errorf("already revoked")
)

// ValidationError is returned before any remote command is attempted.
// Correcting the input always makes it recoverable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RemoteError wraps a failure reported by the administrative target.
// Command holds a short description of the rejected statement, never
// the statement text itself.
type RemoteError struct {
	Command string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Command, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func Remote(command string, err error) error {
	return &RemoteError{Command: command, Err: err}
}
