package atmos

import (
	"errors"
	"fmt"
)

// NewError creates a new error with the given error code and error.
func NewError(code ErrorCode, err error) error {
	return &Error{code: code, err: err}
}

// Errorf is a shorthand for NewError(code, fmt.Errorf(format, args...)).
func Errorf(code ErrorCode, format string, args ...any) error {
	return &Error{code: code, err: fmt.Errorf(format, args...)}
}

// ErrorCode represents an error code for a specific error type. The set is closed; every code has a
// fixed exit status and fatality.
type ErrorCode int

const (
	ErrDirectoryMissing ErrorCode = iota + 1
	ErrDirectoryUnreadable
	ErrNoMatchingDirective
	ErrInvalidScaffoldName
	ErrScaffoldAlreadyExists
	ErrUnknownConfigKey
	ErrUnknownSubMethod
	ErrInvalidArgument
)

func (c ErrorCode) String() string {
	return convertErrorCode(c)
}

// Fatal reports whether the code ends the pass before any directive is matched.
func (c ErrorCode) Fatal() bool {
	return c == ErrDirectoryMissing || c == ErrDirectoryUnreadable
}

// ExitStatus is the process exit status used when a pass ends with this code.
func (c ErrorCode) ExitStatus() int {
	switch c {
	case ErrNoMatchingDirective, ErrInvalidArgument:
		return 2
	default:
		return 1
	}
}

func convertErrorCode(code ErrorCode) string {
	switch code {
	case ErrDirectoryMissing:
		return "directory missing"
	case ErrDirectoryUnreadable:
		return "directory unreadable"
	case ErrNoMatchingDirective:
		return "no matching directive"
	case ErrInvalidScaffoldName:
		return "invalid scaffold name"
	case ErrScaffoldAlreadyExists:
		return "scaffold already exists"
	case ErrUnknownConfigKey:
		return "unknown config key"
	case ErrUnknownSubMethod:
		return "unknown sub-method"
	case ErrInvalidArgument:
		return "invalid argument"
	default:
		return "unknown error"
	}
}

// Error represents an error with an error code and an underlying error.
type Error struct {
	code ErrorCode
	err  error
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return convertErrorCode(e.code) + ": <nil>"
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// ExitCoder is implemented by errors that carry their own process exit status, such as a script
// handler whose shell line exited non-zero.
type ExitCoder interface {
	ExitCode() int
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}

// ExitCode maps the result of [Engine.Execute] to a process exit status: 0 for nil, the code's
// status for an *Error, the carried status for an [ExitCoder] and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := CodeOf(err); ok {
		return code.ExitStatus()
	}
	var ec ExitCoder
	if errors.As(err, &ec) && ec.ExitCode() > 0 {
		return ec.ExitCode()
	}
	return 1
}
