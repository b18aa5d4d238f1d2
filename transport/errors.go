package transport

import (
	"context"
	stderrors "errors"
	"net"
	"net/url"
	"os"

	fterrors "github.com/jrsteele09/go-fittrack-client/internal/errors"
)

// IsNetworkError reports whether err is a transport failure or timeout rather than an
// HTTP-level answer from the server.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

// IsTimeout reports whether err is a timeout
func IsTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyError turns transport failures into ErrNetwork with a displayable message.
// Any other error is returned unchanged.
func ClassifyError(err error) error {
	if !IsNetworkError(err) {
		return err
	}
	if IsTimeout(err) {
		return fterrors.WithCause(fterrors.ErrNetwork, err, "The request timed out. Please try again.")
	}
	return fterrors.WithCause(fterrors.ErrNetwork, err, "Unable to reach the server. Please check your connection and try again.")
}
