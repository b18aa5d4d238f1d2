package main

import (
	"errors"

	"github.com/jedib0t/go-pretty/v6/text"
	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
	"github.com/jrsteele09/go-fittrack-client/registration"
)

// Exit codes for CLI commands
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeAuth means the credentials were rejected or the session has ended
	ExitCodeAuth = 2
	// ExitCodeSplitState means the identity account exists but the application account does not
	ExitCodeSplitState = 3
	ExitCodeNetwork    = 4
)

func exitCodeFor(err error) int {
	var split *registration.SplitStateError
	switch {
	case errors.As(err, &split):
		return ExitCodeSplitState
	case errors.Is(err, fterrors.ErrAuthRejected),
		errors.Is(err, fterrors.ErrAuthorizationExpired),
		errors.Is(err, fterrors.ErrNotLoggedIn),
		errors.Is(err, fterrors.ErrLoginSuperseded):
		return ExitCodeAuth
	case errors.Is(err, fterrors.ErrNetwork):
		return ExitCodeNetwork
	default:
		return ExitCodeError
	}
}

func errorText(err error) string {
	msg := fterrors.Message(err)
	var split *registration.SplitStateError
	if errors.As(err, &split) {
		msg += "\nYour login was created but your profile was not. Please contact support quoting username " + split.Username + "."
	}
	return text.FgRed.Sprint("✗ ") + msg
}
