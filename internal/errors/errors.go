package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the session and fetch layers
var (
	// Authentication errors
	ErrAuthRejected         = errors.New("authentication rejected")
	ErrAuthorizationExpired = errors.New("authorization expired")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrLoginSuperseded      = errors.New("login superseded by logout")

	// Registration errors
	ErrIdentityRegistrationFailed = errors.New("identity registration failed")
	ErrBackendRegistrationFailed  = errors.New("backend registration failed")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// Detail fetch errors
	ErrResourceNotReady    = errors.New("resource not ready")
	ErrResourceFetchFailed = errors.New("resource fetch failed")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// Error pairs an error kind with a message fit for direct display.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

// Is matches the error kind so errors.Is(err, ErrAuthRejected) works through any wrapping.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Newf creates a displayable error of the given kind
func Newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithCause creates a displayable error of the given kind that keeps cause in its chain
func WithCause(kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// DisplayMessage returns the text meant for the user
func (e *Error) DisplayMessage() string {
	return e.Error()
}

// Displayable is implemented by errors that carry text fit for a user
type Displayable interface {
	error
	DisplayMessage() string
}

// Message returns the text to show a user for err, skipping any wrapping context.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var d Displayable
	if errors.As(err, &d) {
		return d.DisplayMessage()
	}
	return err.Error()
}
