package session

import (
	"github.com/jrsteele09/go-fittrack-client/identity"
)

// Status is the authentication state of the process-wide session
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
	// StatusFailed means stored credentials could not be read. Requests go out
	// unauthenticated, and Login or Logout leave the state.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is a snapshot of who is logged in. Empty strings stand for absent values.
type Session struct {
	User         *identity.Profile
	AccessToken  string
	RefreshToken string
	SubjectID    string
	Status       Status
	LastError    string
}

// Authenticated reports whether the snapshot carries a usable session
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.AccessToken != ""
}
